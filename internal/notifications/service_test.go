package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"narrator/internal/config"
	"narrator/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
	calls    int
}

func captureServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.calls++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		got.body = string(body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	t.Cleanup(server.Close)
	return server, got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyNarrationReady(context.Background(), "Film", 3, time.Second); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "narration ready",
			send: func(s notifications.Service) error {
				return s.NotifyNarrationReady(context.Background(), " Film Night ", 42, 83*time.Second+400*time.Millisecond)
			},
			expectTitle:   "Narrator - Narration Ready",
			expectMessage: "🎙️ Narration ready: Film Night (42 segments in 1m23s)",
			expectTags:    "narrator,narration,completed",
		},
		{
			name: "narration failed",
			send: func(s notifications.Service) error {
				return s.NotifyNarrationFailed(context.Background(), "Film", errors.New("cue 4: edge-tts exited 1"))
			},
			expectTitle:    "Narrator - Narration Failed",
			expectMessage:  "❌ Narration failed for Film: cue 4: edge-tts exited 1",
			expectTags:     "narrator,narration,failed",
			expectPriority: "high",
		},
		{
			name: "error",
			send: func(s notifications.Service) error {
				return s.NotifyError(context.Background(), errors.New("mpv exited"), "playback")
			},
			expectTitle:    "Narrator - Error",
			expectMessage:  "❌ Error with playback: mpv exited",
			expectTags:     "narrator,error,alert",
			expectPriority: "high",
		},
		{
			name: "test",
			send: func(s notifications.Service) error {
				return s.TestNotification(context.Background())
			},
			expectTitle:    "Narrator - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "narrator,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := captureServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			if err := tc.send(notifications.NewService(&cfg)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsCategorySwitches(t *testing.T) {
	server, got := captureServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Generation = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	ctx := context.Background()
	_ = svc.NotifyNarrationReady(ctx, "Film", 1, 0)
	_ = svc.NotifyNarrationFailed(ctx, "Film", nil)
	_ = svc.NotifyError(ctx, nil, "")
	if got.calls != 0 {
		t.Fatalf("expected suppressed notifications, got %d calls", got.calls)
	}
	if err := svc.TestNotification(ctx); err != nil || got.calls != 1 {
		t.Fatalf("test notification always sends: calls=%d err=%v", got.calls, err)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := captureServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
