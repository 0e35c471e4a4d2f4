package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"narrator/internal/services"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "synthesis", "edge-tts", "failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to be retained, got %v", err)
	}
	want := "external tool error: synthesis: edge-tts: failed: boom"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, " ", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.HasSuffix(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureSurvivesFurtherWrapping(t *testing.T) {
	inner := services.Wrap(services.ErrNotFound, "playlist", "add", "missing video", nil)
	outer := fmt.Errorf("add entry: %w", inner)

	var failure *services.Failure
	if !errors.As(outer, &failure) {
		t.Fatal("expected *Failure in chain")
	}
	if failure.Stage != "playlist" || failure.Operation != "add" {
		t.Fatalf("unexpected failure %+v", failure)
	}
	if errors.Is(outer, services.ErrValidation) {
		t.Fatal("unexpected validation marker")
	}
}

func TestHint(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrConfiguration, "", "", "x", nil), "config"},
		{services.Wrap(services.ErrExternalTool, "", "", "x", nil), "doctor"},
		{errors.New("plain"), "retry"},
	}
	for _, tc := range cases {
		if got := services.Hint(tc.err); !strings.Contains(got, tc.want) {
			t.Fatalf("Hint(%v) = %q, want substring %q", tc.err, got, tc.want)
		}
	}
	if services.Hint(nil) != "" {
		t.Fatal("nil error should have no hint")
	}
}
