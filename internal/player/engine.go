package player

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"narrator/internal/events"
	"narrator/internal/logging"
	"narrator/internal/segments"
)

// Options seeds the engine's volume and narration settings.
type Options struct {
	VideoVolume      int
	NarrationVolume  int
	NarrationEnabled bool
	Logger           *slog.Logger
}

// Engine coordinates the primary and secondary pipelines.
type Engine struct {
	primary   Pipeline
	secondary Pipeline
	bus       events.Publisher
	logger    *slog.Logger

	state      State
	loaded     bool
	resource   string
	positionMs int64
	durationMs int64

	videoVolume      int
	narrationVolume  int
	narrationEnabled bool

	index   *segments.Index
	active  int
	secMode secondaryMode
}

// NewEngine builds an engine over the two pipelines. bus may be nil.
func NewEngine(primary, secondary Pipeline, bus events.Publisher, opts Options) *Engine {
	if bus == nil {
		bus = events.Discard{}
	}
	return &Engine{
		primary:          primary,
		secondary:        secondary,
		bus:              bus,
		logger:           logging.NewComponentLogger(opts.Logger, "player"),
		videoVolume:      clampVolume(opts.VideoVolume),
		narrationVolume:  clampVolume(opts.NarrationVolume),
		narrationEnabled: opts.NarrationEnabled,
		active:           -1,
	}
}

// State returns a snapshot of the playback state.
func (e *Engine) State() PlaybackState {
	return PlaybackState{
		State:            e.state,
		Loaded:           e.loaded,
		Resource:         e.resource,
		PositionMs:       e.positionMs,
		DurationMs:       e.durationMs,
		VideoVolume:      e.videoVolume,
		NarrationVolume:  e.narrationVolume,
		NarrationEnabled: e.narrationEnabled,
		ActiveSegment:    e.active,
		SegmentCount:     e.index.Len(),
	}
}

// Loaded reports whether the primary pipeline holds a video.
func (e *Engine) Loaded() bool {
	return e.loaded
}

// Load opens resource on the primary pipeline. A playing or paused engine
// is stopped first. Load never starts playback.
func (e *Engine) Load(ctx context.Context, resource string, target RenderTarget) error {
	if e.state != Stopped {
		e.Stop(ctx)
	}
	e.positionMs = 0
	e.durationMs = 0
	e.active = -1

	if err := e.primary.Load(ctx, resource, target); err != nil {
		e.loaded = false
		e.resource = ""
		loadErr := &PipelineLoadError{Pipeline: "primary", Resource: resource, Err: err}
		e.fail("video load failed", loadErr)
		return loadErr
	}
	e.loaded = true
	e.resource = resource
	if length, err := e.primary.Length(ctx); err == nil {
		e.durationMs = length
	}
	e.applyPrimaryVolume(ctx)
	e.call("secondary volume", e.secondary.SetVolume(ctx, e.narrationVolume))

	e.logger.Info("video loaded",
		logging.String("resource", resource),
		logging.String(logging.FieldEventType, "video_loaded"),
	)
	e.bus.Publish(events.Event{Kind: events.VideoLoaded, Resource: resource, DurationMs: e.durationMs})
	return nil
}

// AttachSegments replaces the segment index. The next tick re-resolves the
// active segment.
func (e *Engine) AttachSegments(ctx context.Context, idx *segments.Index) {
	e.index = idx
	e.active = -1
	if e.secMode != secondaryIdle {
		e.call("secondary stop", e.secondary.Stop(ctx))
		e.secMode = secondaryIdle
	}
	e.bus.Publish(events.Event{Kind: events.SegmentsAttached, Segments: idx.Len()})
}

// Play starts the primary pipeline. The secondary follows on the next tick.
func (e *Engine) Play(ctx context.Context) {
	if e.state == Playing {
		return
	}
	if !e.loaded {
		e.fail("play ignored", errors.New("no video loaded"))
		return
	}
	if !e.call("primary play", e.primary.Play(ctx)) {
		return
	}
	e.state = Playing
	e.bus.Publish(events.Event{Kind: events.PlaybackStarted, PositionMs: e.positionMs})
}

// Pause pauses the primary pipeline and, with narration enabled, the
// secondary.
func (e *Engine) Pause(ctx context.Context) {
	if e.state != Playing {
		return
	}
	if !e.call("primary pause", e.primary.Pause(ctx)) {
		return
	}
	if e.narrationEnabled && e.secMode == secondaryPlaying {
		if e.call("secondary pause", e.secondary.Pause(ctx)) {
			e.secMode = secondaryHeld
		}
	}
	e.state = Paused
	e.bus.Publish(events.Event{Kind: events.PlaybackPaused, PositionMs: e.positionMs})
}

// Stop stops both pipelines and rewinds. The video stays loaded.
func (e *Engine) Stop(ctx context.Context) {
	e.call("primary stop", e.primary.Stop(ctx))
	e.call("secondary stop", e.secondary.Stop(ctx))
	e.secMode = secondaryIdle
	e.state = Stopped
	e.positionMs = 0
	e.active = -1
	e.bus.Publish(events.Event{Kind: events.PlaybackStopped})
}

// Seek repositions the primary pipeline to fraction of the video and
// resolves the active segment at the target position immediately. While the
// video length is still unknown the next tick resolves it instead.
func (e *Engine) Seek(ctx context.Context, fraction float64) {
	if !e.loaded {
		return
	}
	switch {
	case fraction < 0 || math.IsNaN(fraction):
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	if length, err := e.primary.Length(ctx); err == nil && length > 0 {
		e.durationMs = length
	}
	if !e.call("primary seek", e.primary.Seek(ctx, fraction)) {
		return
	}
	if e.durationMs <= 0 {
		e.logger.Debug("video length unknown; seek resolves on next tick", logging.Float64("fraction", fraction))
		return
	}
	e.positionMs = int64(fraction * float64(e.durationMs))
	if e.narrationEnabled && e.index.Len() > 0 {
		e.resolve(ctx)
	}
	e.bus.Publish(events.Event{Kind: events.PositionChanged, PositionMs: e.positionMs, DurationMs: e.durationMs, Segment: e.active})
}

// SetVolume sets the level of whichever pipeline currently carries audio and
// remembers it for that pipeline. Levels outside 0..100 are ignored.
func (e *Engine) SetVolume(ctx context.Context, level int) {
	if level < 0 || level > 100 {
		e.logger.Debug("volume out of range; ignored", logging.Int("level", level))
		return
	}
	target := "video"
	if e.narrationEnabled {
		target = "narration"
		e.narrationVolume = level
		e.call("secondary volume", e.secondary.SetVolume(ctx, level))
	} else {
		e.videoVolume = level
		e.call("primary volume", e.primary.SetVolume(ctx, level))
	}
	e.bus.Publish(events.Event{Kind: events.VolumeChanged, Volume: level, Target: target})
}

// ToggleNarration switches audio between the video and the narration.
// Enabling mutes the video; disabling restores the video level and stops
// the narration clip outright. Requesting the current mode does nothing.
func (e *Engine) ToggleNarration(ctx context.Context, enabled bool) {
	if enabled == e.narrationEnabled {
		return
	}
	e.narrationEnabled = enabled
	e.active = -1
	if enabled {
		e.call("primary volume", e.primary.SetVolume(ctx, 0))
		e.call("secondary volume", e.secondary.SetVolume(ctx, e.narrationVolume))
	} else {
		e.call("primary volume", e.primary.SetVolume(ctx, e.videoVolume))
		e.call("secondary stop", e.secondary.Stop(ctx))
		e.secMode = secondaryIdle
	}
	e.bus.Publish(events.Event{Kind: events.NarrationToggled, Enabled: enabled})
}

// Tick runs one synchronization step.
func (e *Engine) Tick(ctx context.Context) {
	if !e.loaded {
		return
	}
	pos, err := e.primary.Time(ctx)
	if err != nil {
		e.logger.Debug("position read failed", logging.Error(err))
		return
	}
	if length, err := e.primary.Length(ctx); err == nil && length > 0 {
		e.durationMs = length
	}
	moved := pos != e.positionMs
	e.positionMs = pos

	if e.narrationEnabled && e.index.Len() > 0 {
		e.resolve(ctx)
		if e.state == Playing && e.secMode == secondaryHeld {
			if e.call("secondary play", e.secondary.Play(ctx)) {
				e.secMode = secondaryPlaying
			}
		}
	}
	if moved {
		e.bus.Publish(events.Event{Kind: events.PositionChanged, PositionMs: pos, DurationMs: e.durationMs, Segment: e.active})
	}
}

func (e *Engine) resolve(ctx context.Context) {
	resolved, ok := e.index.FindActive(e.positionMs)
	if !ok {
		resolved = -1
	}
	if resolved == e.active {
		return
	}
	e.active = resolved
	if resolved < 0 {
		e.call("secondary stop", e.secondary.Stop(ctx))
		e.secMode = secondaryIdle
		return
	}

	seg := e.index.At(resolved)
	if err := e.secondary.Load(ctx, seg.AudioPath, ""); err != nil {
		e.secMode = secondaryIdle
		e.fail("narration clip load failed", &PipelineLoadError{Pipeline: "secondary", Resource: seg.AudioPath, Err: err})
		return
	}
	e.secMode = secondaryHeld
	if e.state == Playing && e.call("secondary play", e.secondary.Play(ctx)) {
		e.secMode = secondaryPlaying
	}
	e.logger.Debug("narration segment active",
		logging.Int(logging.FieldSegment, resolved),
		logging.Int64("position_ms", e.positionMs),
	)
}

func (e *Engine) applyPrimaryVolume(ctx context.Context) {
	level := e.videoVolume
	if e.narrationEnabled {
		level = 0
	}
	e.call("primary volume", e.primary.SetVolume(ctx, level))
}

// call reports err as an error event and returns whether err was nil.
func (e *Engine) call(op string, err error) bool {
	if err == nil {
		return true
	}
	e.fail(op+" failed", err)
	return false
}

func (e *Engine) fail(msg string, err error) {
	logging.WarnWithContext(e.logger, msg, "pipeline_error",
		logging.Error(err),
		logging.String(logging.FieldImpact, "playback state unchanged"),
		logging.String(logging.FieldErrorHint, "check that mpv can open the media file"),
	)
	e.bus.Publish(events.Event{Kind: events.Error, Message: msg, Err: err})
}

func clampVolume(level int) int {
	switch {
	case level < 0:
		return 0
	case level > 100:
		return 100
	default:
		return level
	}
}
