package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"narrator/internal/services"
)

// Report is the subset of ffprobe's JSON output narrator reads.
type Report struct {
	Streams []Stream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type Stream struct {
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
}

// Inspect runs ffprobe on path, asking only for durations and stream kinds.
func Inspect(ctx context.Context, binary, path string) (Report, error) {
	if path = strings.TrimSpace(path); path == "" {
		return Report{}, services.Wrap(services.ErrValidation, "ffprobe", "inspect", "empty path", nil)
	}
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type,duration",
		"-of", "json",
		"--", path,
	)
	output, err := cmd.Output()
	if err != nil {
		detail := path
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return Report{}, services.Wrap(services.ErrExternalTool, "ffprobe", "inspect", detail, err)
	}

	var report Report
	if err := json.Unmarshal(output, &report); err != nil {
		return Report{}, services.Wrap(services.ErrExternalTool, "ffprobe", "decode", path, err)
	}
	return report, nil
}

// Count returns how many streams have the given codec type ("audio",
// "video", "subtitle").
func (r Report) Count(kind string) int {
	n := 0
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, kind) {
			n++
		}
	}
	return n
}

// Seconds prefers the container duration and otherwise takes the longest
// stream. Unparseable or negative values count as missing.
func (r Report) Seconds() float64 {
	if d := seconds(r.Format.Duration); d > 0 {
		return d
	}
	longest := 0.0
	for _, s := range r.Streams {
		longest = max(longest, seconds(s.Duration))
	}
	return longest
}

func seconds(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Prober measures media durations with a fixed ffprobe binary.
type Prober struct {
	Binary string
}

// DurationMs returns the rounded media duration in milliseconds.
func (p Prober) DurationMs(ctx context.Context, path string) (int64, error) {
	report, err := Inspect(ctx, p.Binary, path)
	if err != nil {
		return 0, err
	}
	secs := report.Seconds()
	if secs <= 0 {
		return 0, services.Wrap(services.ErrValidation, "ffprobe", "duration", "no duration reported for "+path, nil)
	}
	return int64(math.Round(secs * 1000)), nil
}
