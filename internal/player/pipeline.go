package player

import (
	"context"
	"fmt"
)

// RenderTarget identifies where the primary pipeline draws video. Empty
// lets the pipeline open its own window.
type RenderTarget string

// Pipeline is one playable media stream.
type Pipeline interface {
	Load(ctx context.Context, resource string, target RenderTarget) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	SetVolume(ctx context.Context, level int) error
	// Seek repositions to fraction (0..1) of the media length.
	Seek(ctx context.Context, fraction float64) error
	// Time returns the current position in milliseconds.
	Time(ctx context.Context) (int64, error)
	// Length returns the media duration in milliseconds, 0 when unknown.
	Length(ctx context.Context) (int64, error)
	Close() error
}

// PipelineLoadError reports a pipeline that could not open a resource.
type PipelineLoadError struct {
	Pipeline string
	Resource string
	Err      error
}

func (e *PipelineLoadError) Error() string {
	return fmt.Sprintf("%s pipeline: load %s: %v", e.Pipeline, e.Resource, e.Err)
}

func (e *PipelineLoadError) Unwrap() error {
	return e.Err
}
