package services_test

import (
	"context"
	"testing"

	"narrator/internal/services"
)

func TestScopeAccumulates(t *testing.T) {
	ctx := services.WithEntryKey(context.Background(), "lecture-1a2b3c4d")
	ctx = services.WithStage(ctx, "narration")
	ctx = services.WithRunID(ctx, "run-123")

	want := services.Scope{Entry: "lecture-1a2b3c4d", Stage: "narration", RunID: "run-123"}
	if got := services.ScopeFrom(ctx); got != want {
		t.Fatalf("scope = %+v, want %+v", got, want)
	}
}

func TestScopeInnerValueWins(t *testing.T) {
	outer := services.WithStage(context.Background(), "narration")
	inner := services.WithStage(outer, "playback")
	if got := services.ScopeFrom(inner).Stage; got != "playback" {
		t.Fatalf("stage = %q", got)
	}
	if got := services.ScopeFrom(outer).Stage; got != "narration" {
		t.Fatalf("outer stage changed to %q", got)
	}
}

func TestBlankValuesLeaveContextUntouched(t *testing.T) {
	base := context.Background()
	ctx := services.WithRunID(services.WithEntryKey(services.WithStage(base, ""), ""), "")
	if ctx != base {
		t.Fatal("expected blank values to return the original context")
	}
	if got := services.ScopeFrom(base); got != (services.Scope{}) {
		t.Fatalf("empty context scope = %+v", got)
	}
}
