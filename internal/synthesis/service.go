package synthesis

import (
	"context"
	"fmt"
)

// Request describes one clip to synthesize.
type Request struct {
	Text        string
	Voice       string
	RatePercent int
	OutputPath  string
}

// Service synthesizes a single clip to Request.OutputPath.
type Service interface {
	Synthesize(ctx context.Context, req Request) error
}

// FormatRate renders a percent adjustment in edge-tts relative syntax ("+12%", "-5%").
func FormatRate(percent int) string {
	return fmt.Sprintf("%+d%%", percent)
}
