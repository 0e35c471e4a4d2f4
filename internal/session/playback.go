package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"narrator/internal/events"
	"narrator/internal/jobstore"
	"narrator/internal/logging"
	"narrator/internal/narration"
	"narrator/internal/playlist"
	"narrator/internal/segments"
	"narrator/internal/services"
	"narrator/internal/subtitles"
	"narrator/internal/synthesis"
)

// PlayCurrent prepares narration for the current entry in the background
// and plays it once ready. Preparation for any other entry is cancelled.
func (s *Session) PlayCurrent(ctx context.Context) error {
	s.mu.Lock()
	entry, ok := s.playlist.Current()
	if !ok {
		s.mu.Unlock()
		return services.Wrap(services.ErrNotFound, "session", "play", "playlist is empty", nil)
	}
	key := entry.Key()
	if s.prepKey == key {
		s.mu.Unlock()
		s.logger.Debug("narration already preparing", logging.String(logging.FieldEntry, key))
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	prepCtx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.prepDone = done
	s.prepKey = key
	s.prepTitle = entry.Title()
	s.progress = 0
	s.wg.Add(1)
	s.mu.Unlock()

	if err := s.transport.Stop(ctx); err != nil {
		s.logger.Debug("stop before prepare failed", logging.Error(err))
	}
	go s.prepare(prepCtx, cancel, entry, done)
	return nil
}

func (s *Session) prepare(ctx context.Context, cancel context.CancelFunc, entry playlist.Entry, done chan struct{}) {
	defer s.wg.Done()
	defer close(done)
	defer cancel()
	key := entry.Key()
	defer s.finishPrepare(key)

	ctx = services.WithEntryKey(ctx, key)
	logger := logging.WithContext(ctx, s.logger)

	idx, err := s.narrationFor(ctx, entry)
	if ctx.Err() != nil {
		logger.Info("narration preparation cancelled", logging.String(logging.FieldEventType, "narration_cancelled"))
		return
	}
	if err != nil {
		s.bus.Publish(events.Event{Kind: events.GenerationError, Entry: entry.Title(), Message: err.Error(), Err: err})
		logging.WarnWithContext(logger, "playing without narration", "narration_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "video plays with its original audio"),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
	}
	s.startPlayback(ctx, entry, idx)
}

func (s *Session) finishPrepare(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prepKey == key {
		s.prepKey = ""
		s.prepTitle = ""
		s.cancel = nil
		s.prepDone = nil
	}
}

// narrationFor returns the entry's segment index, generating it when the
// ledger has no finished manifest.
func (s *Session) narrationFor(ctx context.Context, entry playlist.Entry) (*segments.Index, error) {
	key := entry.Key()
	if entry.NarrationReady && s.store != nil {
		job, err := s.store.Get(ctx, key)
		if err == nil && job != nil && job.Status == jobstore.StatusReady {
			segs, err := s.store.Segments(ctx, key)
			if err == nil {
				if idx, err := segments.Build(segs); err == nil {
					s.logger.Debug("narration manifest reused", logging.String(logging.FieldEntry, key), logging.Int("segments", idx.Len()))
					return idx, nil
				}
			}
		}
	}
	return s.generate(ctx, entry)
}

func (s *Session) generate(ctx context.Context, entry playlist.Entry) (*segments.Index, error) {
	key := entry.Key()
	title := entry.Title()
	outputDir := playlist.NarrationDirFor(s.cfg.Paths.NarrationDir, entry)
	runID := uuid.NewString()

	voice, err := synthesis.Voices(s.cfg.Synthesis.Voices).Resolve(entry.Voice)
	if err != nil {
		return nil, err
	}
	cues, err := subtitles.ParseFile(entry.SubtitlePath)
	if err != nil {
		s.recordFailure(ctx, entry, err)
		return nil, err
	}

	s.register(ctx, entry)
	s.ledger("begin", func() error { return s.store.Begin(ctx, key, runID, len(cues)) })
	s.bus.Publish(events.Event{Kind: events.GenerationStarted, Entry: title})
	s.sampler.Reset()

	progress := func(percent int) {
		s.mu.Lock()
		if s.prepKey == key {
			s.progress = percent
		}
		s.mu.Unlock()
		s.bus.Publish(events.Event{Kind: events.GenerationProgress, Entry: title, Percent: percent})
		if s.sampler.ShouldLog(percent, key) {
			s.logger.Info("narration progress",
				logging.String(logging.FieldEntry, key),
				logging.Int(logging.FieldProgress, percent),
			)
			s.ledger("progress", func() error { return s.store.UpdateProgress(ctx, key, percent) })
		}
	}

	res, err := s.gen.Generate(ctx, narration.Request{
		Key:         key,
		Cues:        cues,
		OutputDir:   outputDir,
		Voice:       voice,
		GlobalSpeed: s.cfg.Synthesis.GlobalSpeed,
		RunID:       runID,
	}, progress)
	if err != nil {
		if ctx.Err() == nil {
			s.recordFailure(ctx, entry, err)
		} else {
			s.ledger("fail", func() error { return s.store.Fail(context.WithoutCancel(ctx), key, "cancelled") })
		}
		return nil, err
	}
	if res.Skipped {
		return nil, services.Wrap(services.ErrTransient, "session", "generate",
			"narration for this video is being generated by another process", nil)
	}

	idx, err := segments.Build(res.Segments)
	if err != nil {
		s.recordFailure(ctx, entry, err)
		return nil, err
	}

	s.ledger("complete", func() error {
		return s.store.Complete(ctx, key, res.Segments, jobstore.Counts{
			Synthesized: res.Synthesized,
			Cached:      res.Cached,
			Silent:      res.Silent,
		})
	})
	s.mu.Lock()
	if i := s.playlist.IndexOf(key); i >= 0 {
		if changed, _ := s.playlist.MarkReady(i, outputDir); changed {
			_ = s.saveLocked()
		}
	}
	s.mu.Unlock()

	if err := s.notifier.NotifyNarrationReady(ctx, title, idx.Len(), res.Elapsed); err != nil {
		s.logger.Debug("ready notification failed", logging.Error(err))
	}
	s.bus.Publish(events.Event{Kind: events.GenerationComplete, Entry: title, Segments: idx.Len()})
	s.publishPlaylist()
	return idx, nil
}

func (s *Session) recordFailure(ctx context.Context, entry playlist.Entry, cause error) {
	s.ledger("fail", func() error { return s.store.Fail(ctx, entry.Key(), cause.Error()) })
	if err := s.notifier.NotifyNarrationFailed(ctx, entry.Title(), cause); err != nil {
		s.logger.Debug("failure notification failed", logging.Error(err))
	}
}

// ledger runs a job store write when a store is configured. Ledger failures
// never block playback.
func (s *Session) ledger(op string, fn func() error) {
	if s.store == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Debug("ledger write failed", logging.String("op", op), logging.Error(err))
	}
}

// startPlayback loads entry and plays it. idx nil plays without narration.
func (s *Session) startPlayback(ctx context.Context, entry playlist.Entry, idx *segments.Index) {
	s.mu.Lock()
	current, ok := s.playlist.Current()
	s.mu.Unlock()
	if !ok || current.Key() != entry.Key() {
		return
	}

	if err := s.transport.Load(ctx, entry.VideoPath, s.target); err != nil {
		_ = s.notifier.NotifyError(ctx, err, "playback of "+entry.Title())
		return
	}
	if err := s.transport.AttachSegments(ctx, idx); err != nil {
		return
	}
	if idx == nil {
		st, err := s.transport.State(ctx)
		if err == nil && st.NarrationEnabled {
			_ = s.transport.ToggleNarration(ctx, false)
		}
	}
	if err := s.transport.Play(ctx); err != nil {
		return
	}
	s.logger.Info("playback started",
		logging.String(logging.FieldEntry, entry.Key()),
		logging.Int("segments", idx.Len()),
		logging.String(logging.FieldEventType, "playback_started"),
	)
}

// ToggleNarration switches between narration and the video's own audio.
// It is refused while the current entry has no narration.
func (s *Session) ToggleNarration(ctx context.Context) error {
	s.mu.Lock()
	entry, ok := s.playlist.Current()
	s.mu.Unlock()
	if !ok || !entry.NarrationReady {
		return ErrNarrationNotReady
	}
	st, err := s.transport.State(ctx)
	if err != nil {
		return err
	}
	return s.transport.ToggleNarration(ctx, !st.NarrationEnabled)
}

func (s *Session) TogglePlayback(ctx context.Context) error {
	return s.transport.TogglePlayback(ctx)
}

func (s *Session) Stop(ctx context.Context) error {
	return s.transport.Stop(ctx)
}

// Seek jumps to fraction of the video.
func (s *Session) Seek(ctx context.Context, fraction float64) error {
	return s.transport.Seek(ctx, fraction)
}

// SeekBy skips forward or back by delta.
func (s *Session) SeekBy(ctx context.Context, delta time.Duration) error {
	return s.transport.SeekBy(ctx, delta)
}

// AdjustVolume changes the volume of whichever audio is live.
func (s *Session) AdjustVolume(ctx context.Context, delta int) error {
	return s.transport.AdjustVolume(ctx, delta)
}

// Describe formats an error for display in a status line.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNarrationNotReady) {
		return "Narration is not ready for this video yet"
	}
	var synthErr *narration.SynthesisError
	if errors.As(err, &synthErr) {
		return fmt.Sprintf("Narration failed at cue %d: %v", synthErr.CueIndex+1, synthErr.Err)
	}
	if hint := services.Hint(err); hint != "" {
		return fmt.Sprintf("%v (%s)", err, hint)
	}
	return err.Error()
}
