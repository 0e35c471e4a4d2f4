package player_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"narrator/internal/player"
)

type fakePipeline struct {
	mu       sync.Mutex
	calls    []string
	resource string
	playing  bool
	volume   int
	timeMs   int64
	lengthMs int64
	loadErr  error
	playErr  error
	timeErr  error
}

func newFake(lengthMs int64) *fakePipeline {
	return &fakePipeline{lengthMs: lengthMs, volume: 100}
}

func (f *fakePipeline) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakePipeline) Load(_ context.Context, resource string, _ player.RenderTarget) error {
	f.record("load %s", resource)
	if f.loadErr != nil {
		return f.loadErr
	}
	f.resource = resource
	f.playing = false
	return nil
}

func (f *fakePipeline) Play(context.Context) error {
	f.record("play")
	if f.playErr != nil {
		return f.playErr
	}
	f.playing = true
	return nil
}

func (f *fakePipeline) Pause(context.Context) error {
	f.record("pause")
	f.playing = false
	return nil
}

func (f *fakePipeline) Stop(context.Context) error {
	f.record("stop")
	f.playing = false
	f.timeMs = 0
	return nil
}

func (f *fakePipeline) SetVolume(_ context.Context, level int) error {
	f.record("volume %d", level)
	f.volume = level
	return nil
}

func (f *fakePipeline) Seek(_ context.Context, fraction float64) error {
	f.record("seek %.2f", fraction)
	f.timeMs = int64(fraction * float64(f.lengthMs))
	return nil
}

func (f *fakePipeline) Time(context.Context) (int64, error) {
	if f.timeErr != nil {
		return 0, f.timeErr
	}
	return f.timeMs, nil
}

func (f *fakePipeline) Length(context.Context) (int64, error) {
	return f.lengthMs, nil
}

func (f *fakePipeline) Close() error { return nil }

func (f *fakePipeline) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakePipeline) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

var errCodec = errors.New("codec not supported")
