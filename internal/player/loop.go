package player

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"narrator/internal/logging"
	"narrator/internal/segments"
)

// DefaultTickInterval is the synchronization period.
const DefaultTickInterval = 50 * time.Millisecond

// ErrLoopStopped is returned by Do once the loop has exited.
var ErrLoopStopped = errors.New("player loop stopped")

type command struct {
	fn   func(ctx context.Context, e *Engine)
	done chan struct{}
}

// Loop drives an Engine from a single goroutine.
type Loop struct {
	engine   *Engine
	interval time.Duration
	logger   *slog.Logger
	cmds     chan command
	stopped  chan struct{}
}

// NewLoop wraps engine. A non-positive interval uses DefaultTickInterval.
func NewLoop(engine *Engine, interval time.Duration, logger *slog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Loop{
		engine:   engine,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "player-loop"),
		cmds:     make(chan command),
		stopped:  make(chan struct{}),
	}
}

// Run ticks the engine and executes queued commands until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Debug("player loop started", logging.Duration("interval", l.interval))
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("player loop stopped")
			return ctx.Err()
		case cmd := <-l.cmds:
			cmd.fn(ctx, l.engine)
			close(cmd.done)
		case <-ticker.C:
			if l.engine.Loaded() {
				l.engine.Tick(ctx)
			}
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func(ctx context.Context, e *Engine)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case l.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
	select {
	case <-cmd.done:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	}
}

// Load opens resource on the primary pipeline.
func (l *Loop) Load(ctx context.Context, resource string, target RenderTarget) error {
	var loadErr error
	if err := l.Do(ctx, func(ctx context.Context, e *Engine) {
		loadErr = e.Load(ctx, resource, target)
	}); err != nil {
		return err
	}
	return loadErr
}

func (l *Loop) AttachSegments(ctx context.Context, idx *segments.Index) error {
	return l.Do(ctx, func(ctx context.Context, e *Engine) { e.AttachSegments(ctx, idx) })
}

func (l *Loop) Play(ctx context.Context) error {
	return l.Do(ctx, func(ctx context.Context, e *Engine) { e.Play(ctx) })
}

// TogglePlayback pauses a playing engine and plays otherwise.
func (l *Loop) TogglePlayback(ctx context.Context) error {
	return l.Do(ctx, func(ctx context.Context, e *Engine) {
		if e.State().Playing() {
			e.Pause(ctx)
			return
		}
		e.Play(ctx)
	})
}

func (l *Loop) Stop(ctx context.Context) error {
	return l.Do(ctx, func(ctx context.Context, e *Engine) { e.Stop(ctx) })
}

func (l *Loop) Seek(ctx context.Context, fraction float64) error {
	return l.Do(ctx, func(ctx context.Context, e *Engine) { e.Seek(ctx, fraction) })
}

// SeekBy moves the position by delta relative to the current position.
func (l *Loop) SeekBy(ctx context.Context, delta time.Duration) error {
	return l.Do(ctx, func(ctx context.Context, e *Engine) {
		st := e.State()
		if !st.Loaded || st.DurationMs <= 0 {
			return
		}
		target := st.PositionMs + delta.Milliseconds()
		e.Seek(ctx, float64(target)/float64(st.DurationMs))
	})
}

// AdjustVolume changes the routed volume by delta, clamped to 0..100.
func (l *Loop) AdjustVolume(ctx context.Context, delta int) error {
	return l.Do(ctx, func(ctx context.Context, e *Engine) {
		st := e.State()
		current := st.VideoVolume
		if st.NarrationEnabled {
			current = st.NarrationVolume
		}
		e.SetVolume(ctx, clampVolume(current+delta))
	})
}

func (l *Loop) ToggleNarration(ctx context.Context, enabled bool) error {
	return l.Do(ctx, func(ctx context.Context, e *Engine) { e.ToggleNarration(ctx, enabled) })
}

// State returns a snapshot taken on the loop goroutine.
func (l *Loop) State(ctx context.Context) (PlaybackState, error) {
	var st PlaybackState
	err := l.Do(ctx, func(_ context.Context, e *Engine) { st = e.State() })
	return st, err
}
