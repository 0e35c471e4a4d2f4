package session

import (
	"context"
	"fmt"
	"os"

	"narrator/internal/config"
	"narrator/internal/jobstore"
	"narrator/internal/logging"
	"narrator/internal/playlist"
	"narrator/internal/services"
	"narrator/internal/subtitles"
	"narrator/internal/synthesis"
)

// ValidateEntry checks that both files exist, that the subtitle format is
// supported and that voice resolves, returning the entry to add. An empty
// voice uses the configured default.
func ValidateEntry(cfg *config.Config, videoPath, subtitlePath, voice string) (playlist.Entry, error) {
	if err := requireFile(videoPath); err != nil {
		return playlist.Entry{}, err
	}
	if err := requireFile(subtitlePath); err != nil {
		return playlist.Entry{}, err
	}
	if _, err := subtitles.FormatForPath(subtitlePath); err != nil {
		return playlist.Entry{}, err
	}
	if voice == "" {
		voice = cfg.Synthesis.DefaultVoice
	}
	if _, err := synthesis.Voices(cfg.Synthesis.Voices).Resolve(voice); err != nil {
		return playlist.Entry{}, err
	}
	return playlist.Entry{VideoPath: videoPath, SubtitlePath: subtitlePath, Voice: voice}, nil
}

// Add appends a video with its subtitle track.
func (s *Session) Add(ctx context.Context, videoPath, subtitlePath, voice string) (int, error) {
	entry, err := ValidateEntry(s.cfg, videoPath, subtitlePath, voice)
	if err != nil {
		return -1, err
	}
	s.mu.Lock()
	idx, err := s.playlist.Add(entry)
	if err != nil {
		s.mu.Unlock()
		return idx, err
	}
	entry, _ = s.playlist.At(idx)
	saveErr := s.saveLocked()
	s.mu.Unlock()

	s.register(ctx, entry)
	s.logger.Info("video added to playlist",
		logging.String(logging.FieldEntry, entry.Key()),
		logging.String("video", entry.VideoPath),
		logging.String("voice", entry.Voice),
		logging.String(logging.FieldEventType, "playlist_add"),
	)
	s.publishPlaylist()
	return idx, saveErr
}

// Remove deletes entry i, its narration clips and its ledger record. The
// player stops when i is the loaded entry.
func (s *Session) Remove(ctx context.Context, i int) error {
	s.mu.Lock()
	entry, err := s.playlist.At(i)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	wasCurrent := i == s.playlist.CurrentIndex()
	var prepDone <-chan struct{}
	if s.prepKey == entry.Key() && s.cancel != nil {
		s.cancel()
		prepDone = s.prepDone
	}
	if _, err := s.playlist.Remove(i); err != nil {
		s.mu.Unlock()
		return err
	}
	saveErr := s.saveLocked()
	s.mu.Unlock()

	// The cancelled preparation may still create the narration directory or
	// write the ledger; purge only after it has returned.
	if prepDone != nil {
		select {
		case <-prepDone:
		case <-ctx.Done():
			s.logger.Debug("remove stopped waiting for preparation", logging.Error(ctx.Err()))
		}
	}
	if wasCurrent {
		if err := s.transport.Stop(ctx); err != nil {
			s.logger.Debug("stop after remove failed", logging.Error(err))
		}
	}
	if err := playlist.PurgeNarration(s.cfg.Paths.NarrationDir, entry); err != nil {
		logging.WarnWithContext(s.logger, "narration cleanup failed", "narration_cleanup_failed",
			logging.String(logging.FieldEntry, entry.Key()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "narration clips left on disk"),
			logging.String(logging.FieldErrorHint, "delete the narration directory manually"),
		)
	}
	if s.store != nil {
		if err := s.store.Delete(ctx, entry.Key()); err != nil {
			s.logger.Debug("ledger delete failed", logging.Error(err))
		}
	}
	s.logger.Info("video removed from playlist",
		logging.String(logging.FieldEntry, entry.Key()),
		logging.String(logging.FieldEventType, "playlist_remove"),
	)
	s.publishPlaylist()
	return saveErr
}

// Select makes entry i current and plays it.
func (s *Session) Select(ctx context.Context, i int) error {
	s.mu.Lock()
	err := s.playlist.Select(i)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publishPlaylist()
	return s.PlayCurrent(ctx)
}

// Next plays the following entry. At the end of the playlist nothing
// changes.
func (s *Session) Next(ctx context.Context) error {
	s.mu.Lock()
	_, ok := s.playlist.Next()
	s.mu.Unlock()
	if !ok {
		return nil
	}
	s.publishPlaylist()
	return s.PlayCurrent(ctx)
}

// Previous plays the preceding entry. At the start nothing changes.
func (s *Session) Previous(ctx context.Context) error {
	s.mu.Lock()
	_, ok := s.playlist.Previous()
	s.mu.Unlock()
	if !ok {
		return nil
	}
	s.publishPlaylist()
	return s.PlayCurrent(ctx)
}

func (s *Session) register(ctx context.Context, entry playlist.Entry) {
	if s.store == nil {
		return
	}
	if _, err := s.store.Register(ctx, JobFor(s.cfg, entry)); err != nil {
		s.logger.Debug("ledger register failed", logging.Error(err))
	}
}

// JobFor returns the ledger record describing entry.
func JobFor(cfg *config.Config, entry playlist.Entry) jobstore.Job {
	return jobstore.Job{
		Key:          entry.Key(),
		VideoPath:    entry.VideoPath,
		SubtitlePath: entry.SubtitlePath,
		Voice:        entry.Voice,
		OutputDir:    playlist.NarrationDirFor(cfg.Paths.NarrationDir, entry),
	}
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "session", "add", path, err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "session", "add", fmt.Sprintf("%s is a directory", path), nil)
	}
	return nil
}
