package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"narrator/internal/subtitles"
)

// WriteFile writes contents to path, creating parent directories.
func WriteFile(t testing.TB, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSRT writes an SRT file containing cues in order.
func WriteSRT(t testing.TB, path string, cues ...subtitles.Cue) {
	t.Helper()

	var b strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1,
			subtitles.FormatTimestamp(cue.StartMs), subtitles.FormatTimestamp(cue.EndMs), cue.Text)
	}
	WriteFile(t, path, b.String())
}
