package synthesis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"narrator/internal/logging"
	"narrator/internal/services"
)

// EdgeTTS drives the edge-tts command line tool.
type EdgeTTS struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewEdgeTTS constructs the synthesizer. A zero timeout disables the
// per-clip deadline.
func NewEdgeTTS(binary string, timeout time.Duration, logger *slog.Logger) *EdgeTTS {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "edge-tts"
	}
	return &EdgeTTS{
		binary:  binary,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "edge-tts"),
	}
}

// Synthesize writes one clip to req.OutputPath.
func (e *EdgeTTS) Synthesize(ctx context.Context, req Request) error {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return services.Wrap(services.ErrValidation, "synthesis", "edge-tts", "empty text", nil)
	}
	if strings.TrimSpace(req.Voice) == "" {
		return services.Wrap(services.ErrValidation, "synthesis", "edge-tts", "empty voice", nil)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrValidation, "synthesis", "edge-tts", "empty output path", nil)
	}

	dir := filepath.Dir(req.OutputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "synthesis", "edge-tts", "create output dir", err)
	}
	tmp, err := os.CreateTemp(dir, ".tts-*"+filepath.Ext(req.OutputPath))
	if err != nil {
		return services.Wrap(services.ErrTransient, "synthesis", "edge-tts", "create temp file", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := []string{
		"--voice", req.Voice,
		"--rate=" + FormatRate(req.RatePercent),
		"--text=" + text,
		"--write-media", tmpPath,
	}
	start := time.Now()
	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return services.Wrap(services.ErrTimeout, "synthesis", "edge-tts", fmt.Sprintf("timed out after %s", e.timeout), err)
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, exec.ErrNotFound):
			return services.Wrap(services.ErrNotFound, "synthesis", "edge-tts", fmt.Sprintf("binary %q not found", e.binary), err)
		default:
			return services.Wrap(services.ErrExternalTool, "synthesis", "edge-tts", detail, err)
		}
	}

	info, err := os.Stat(tmpPath)
	if err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "synthesis", "edge-tts", "tool produced no audio", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		return services.Wrap(services.ErrTransient, "synthesis", "edge-tts", "move clip into place", err)
	}

	logging.WithContext(ctx, e.logger).Debug("clip synthesized",
		logging.String("path", req.OutputPath),
		logging.String("voice", req.Voice),
		logging.String("rate", FormatRate(req.RatePercent)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}
