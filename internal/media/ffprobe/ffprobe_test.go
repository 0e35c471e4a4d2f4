package ffprobe

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"narrator/internal/services"
	"narrator/internal/testsupport"
)

func report(container string, streams ...Stream) Report {
	r := Report{Streams: streams}
	r.Format.Duration = container
	return r
}

func TestReportCountsAndDuration(t *testing.T) {
	r := report("123.45",
		Stream{CodecType: "video"},
		Stream{CodecType: "audio", Duration: "3.2"},
		Stream{CodecType: "AUDIO"},
	)
	if got := r.Count("video"); got != 1 {
		t.Fatalf("video streams = %d", got)
	}
	if got := r.Count("audio"); got != 2 {
		t.Fatalf("audio streams = %d", got)
	}
	if got := r.Seconds(); got != 123.45 {
		t.Fatalf("Seconds = %v", got)
	}
}

func TestSecondsFallsBackToLongestStream(t *testing.T) {
	r := report("N/A", Stream{Duration: "1.5"}, Stream{Duration: "bad"}, Stream{Duration: "2.25"}, Stream{Duration: "-4"})
	if got := r.Seconds(); got != 2.25 {
		t.Fatalf("Seconds = %v", got)
	}
	if (Report{}).Seconds() != 0 {
		t.Fatal("empty report should have no duration")
	}
}

func TestProberDurationMs(t *testing.T) {
	dir := t.TempDir()
	testsupport.StubBinary(t, dir, "ffprobe", `cat <<'JSON'
{"streams":[{"codec_type":"audio","duration":"1.9876"}],"format":{"duration":"1.987600"}}
JSON
`)
	ms, err := Prober{Binary: "ffprobe"}.DurationMs(context.Background(), filepath.Join(dir, "clip.mp3"))
	if err != nil {
		t.Fatalf("DurationMs: %v", err)
	}
	if ms != 1988 {
		t.Fatalf("DurationMs = %d, want 1988", ms)
	}
}

func TestProberRejectsMissingDuration(t *testing.T) {
	dir := t.TempDir()
	testsupport.StubBinary(t, dir, "ffprobe", `echo '{"streams":[],"format":{}}'`+"\n")
	_, err := Prober{Binary: "ffprobe"}.DurationMs(context.Background(), "clip.mp3")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProberReportsToolFailure(t *testing.T) {
	dir := t.TempDir()
	testsupport.StubBinary(t, dir, "ffprobe", "echo 'Invalid data found' >&2\nexit 1\n")
	_, err := Prober{Binary: "ffprobe"}.DurationMs(context.Background(), "clip.mp3")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "", "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
