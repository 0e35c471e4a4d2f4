package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"narrator/internal/config"
	"narrator/internal/logging"
	"narrator/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (*slog.Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{Format: format, Level: level, OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return logger, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	logger, path := newFileLogger(t, "console", "info")
	logging.NewComponentLogger(logger, "player").Info("video loaded", logging.String("video", "my clip.mp4"), logging.Int("segments", 3))

	line := readLog(t, path)
	for _, want := range []string{"INFO", "player: video loaded", `video="my clip.mp4"`, "segments=3"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no source location at info level, got %q", line)
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	logger, path := newFileLogger(t, "console", "debug")
	logger.Info("message with caller")
	if !strings.Contains(readLog(t, path), ".go:") {
		t.Fatal("expected source location in debug mode")
	}
}

func TestJSONLoggerEmitsStructuredRecord(t *testing.T) {
	logger, path := newFileLogger(t, "json", "info")
	logger.Warn("json message", logging.String("k", "v"))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["level"] != "warn" || record["k"] != "v" || record["ts"] == nil {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	logger, path := newFileLogger(t, "console", "loud")
	logger.Debug("hidden")
	logger.Info("shown")
	content := readLog(t, path)
	if strings.Contains(content, "hidden") || !strings.Contains(content, "shown") {
		t.Fatalf("unexpected filtering: %q", content)
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	logger, err := logging.NewFromConfig(&cfg, false)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("to file")
	if !strings.Contains(readLog(t, cfg.LogFilePath()), "to file") {
		t.Fatal("expected message in log file")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithEntryKey(ctx, "lecture-1a2b")
	ctx = services.WithStage(ctx, "narration")
	ctx = services.WithRunID(ctx, "run-xyz")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEntry] != "lecture-1a2b" {
		t.Fatalf("missing entry field: %v", record)
	}
	if record[logging.FieldStage] != "narration" {
		t.Fatalf("missing stage field: %v", record)
	}
	if record[logging.FieldRunID] != "run-xyz" {
		t.Fatalf("missing run id field: %v", record)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "clip probe failed", "probe_failed", logging.String(logging.FieldImpact, "clip length unknown"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "probe_failed" {
		t.Fatalf("event type missing: %v", record)
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatalf("error hint missing: %v", record)
	}
	if record[logging.FieldImpact] != "clip length unknown" {
		t.Fatalf("caller impact overwritten: %v", record)
	}
}
