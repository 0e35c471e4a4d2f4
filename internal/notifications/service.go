package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"narrator/internal/config"
	"narrator/internal/services"
)

const userAgent = "narrator/0.1"

// Service defines the notification surface used by the player session.
type Service interface {
	NotifyNarrationReady(ctx context.Context, title string, segments int, elapsed time.Duration) error
	NotifyNarrationFailed(ctx context.Context, title string, err error) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService returns an ntfy-backed Service, or one that drops everything
// when no topic is configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfy{
		topic:  topic,
		client: &http.Client{Timeout: timeout},
		enabled: map[category]bool{
			categoryGeneration: cfg.Notifications.Generation,
			categoryErrors:     cfg.Notifications.Errors,
			categoryTest:       true,
		},
	}
}

type category int

const (
	categoryGeneration category = iota
	categoryErrors
	categoryTest
)

// message maps onto ntfy's publish headers; body is the plain-text payload.
type message struct {
	category category
	title    string
	body     string
	tags     []string
	priority string
}

type ntfy struct {
	topic   string
	client  *http.Client
	enabled map[category]bool
}

func (n *ntfy) NotifyNarrationReady(ctx context.Context, title string, segments int, elapsed time.Duration) error {
	return n.publish(ctx, message{
		category: categoryGeneration,
		title:    "Narrator - Narration Ready",
		body: fmt.Sprintf("🎙️ Narration ready: %s (%d segments in %s)",
			strings.TrimSpace(title), segments, max(elapsed.Round(time.Second), 0)),
		tags: []string{"narrator", "narration", "completed"},
	})
}

func (n *ntfy) NotifyNarrationFailed(ctx context.Context, title string, err error) error {
	return n.publish(ctx, message{
		category: categoryGeneration,
		title:    "Narrator - Narration Failed",
		body:     fmt.Sprintf("❌ Narration failed for %s: %s", strings.TrimSpace(title), reason(err)),
		tags:     []string{"narrator", "narration", "failed"},
		priority: "high",
	})
}

func (n *ntfy) NotifyError(ctx context.Context, err error, label string) error {
	subject := "❌ Error"
	if label = strings.TrimSpace(label); label != "" {
		subject += " with " + label
	}
	return n.publish(ctx, message{
		category: categoryErrors,
		title:    "Narrator - Error",
		body:     subject + ": " + reason(err),
		tags:     []string{"narrator", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfy) TestNotification(ctx context.Context) error {
	return n.publish(ctx, message{
		category: categoryTest,
		title:    "Narrator - Test",
		body:     "🧪 Notification system test",
		tags:     []string{"narrator", "test"},
		priority: "low",
	})
}

func reason(err error) string {
	if err == nil {
		return "unknown"
	}
	return strings.TrimSpace(err.Error())
}

func (n *ntfy) publish(ctx context.Context, msg message) error {
	if !n.enabled[msg.category] {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.topic, strings.NewReader(msg.body))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "notifications", "build request", n.topic, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", msg.title)
	req.Header.Set("Tags", strings.Join(msg.tags, ","))
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "notifications", "send", "", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrExternalTool, "notifications", "send",
			fmt.Sprintf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyNarrationReady(context.Context, string, int, time.Duration) error {
	return nil
}
func (noopService) NotifyNarrationFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
