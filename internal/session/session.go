package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"narrator/internal/config"
	"narrator/internal/events"
	"narrator/internal/jobstore"
	"narrator/internal/logging"
	"narrator/internal/narration"
	"narrator/internal/notifications"
	"narrator/internal/player"
	"narrator/internal/playlist"
	"narrator/internal/segments"
	"narrator/internal/services"
)

// Transport is the serialized player surface the session drives.
type Transport interface {
	Load(ctx context.Context, resource string, target player.RenderTarget) error
	AttachSegments(ctx context.Context, idx *segments.Index) error
	Play(ctx context.Context) error
	TogglePlayback(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, fraction float64) error
	SeekBy(ctx context.Context, delta time.Duration) error
	AdjustVolume(ctx context.Context, delta int) error
	ToggleNarration(ctx context.Context, enabled bool) error
	State(ctx context.Context) (player.PlaybackState, error)
}

// Generator produces narration for a request.
type Generator interface {
	Generate(ctx context.Context, req narration.Request, progress narration.ProgressFunc) (narration.Result, error)
}

// ErrNarrationNotReady is returned when narration is toggled for an entry
// that has no generated narration.
var ErrNarrationNotReady = errors.New("narration not ready for this video")

// Options wires a session.
type Options struct {
	Config    *config.Config
	Transport Transport
	Generator Generator
	// Store and Notifier are optional.
	Store    *jobstore.Store
	Notifier notifications.Service
	Bus      events.Publisher
	Logger   *slog.Logger
	Target   player.RenderTarget
}

// Snapshot is the session state shown by presentation layers.
type Snapshot struct {
	Playback player.PlaybackState
	Entries  []playlist.Entry
	Current  int
	// Preparing is the title of the entry whose narration is being
	// prepared, empty when idle.
	Preparing string
	Progress  int
}

// Session owns the playlist and drives the player.
type Session struct {
	ctx       context.Context
	cfg       *config.Config
	transport Transport
	gen       Generator
	store     *jobstore.Store
	notifier  notifications.Service
	bus       events.Publisher
	logger    *slog.Logger
	target    player.RenderTarget
	sampler   *logging.ProgressSampler

	mu        sync.Mutex
	playlist  *playlist.Playlist
	prepKey   string
	prepTitle string
	progress  int
	cancel    context.CancelFunc
	// prepDone is closed when the preparation for prepKey has returned.
	prepDone chan struct{}
	wg       sync.WaitGroup
}

// New loads the saved playlist and returns a session bound to ctx. A
// playlist that fails to decode is logged and replaced by an empty one.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Config == nil || opts.Transport == nil || opts.Generator == nil {
		return nil, services.Wrap(services.ErrConfiguration, "session", "new", "config, transport and generator are required", nil)
	}
	logger := logging.NewComponentLogger(opts.Logger, "session")
	bus := opts.Bus
	if bus == nil {
		bus = events.Discard{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}

	pl, err := playlist.Load(opts.Config.Paths.PlaylistFile)
	if err != nil {
		logging.WarnWithContext(logger, "playlist unreadable; starting empty", "playlist_load_failed",
			logging.String("path", opts.Config.Paths.PlaylistFile),
			logging.Error(err),
			logging.String(logging.FieldImpact, "saved playlist ignored and overwritten on next save"),
			logging.String(logging.FieldErrorHint, "fix or delete the playlist file"),
		)
	}
	logger.Debug("playlist loaded", logging.Int("entries", pl.Len()), logging.Int("current", pl.CurrentIndex()))

	return &Session{
		ctx:       ctx,
		cfg:       opts.Config,
		transport: opts.Transport,
		gen:       opts.Generator,
		store:     opts.Store,
		notifier:  notifier,
		bus:       bus,
		logger:    logger,
		target:    opts.Target,
		sampler:   logging.NewProgressSampler(25),
		playlist:  pl,
	}, nil
}

// Snapshot returns the current session state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	st, err := s.transport.State(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Playback:  st,
		Entries:   s.playlist.Entries(),
		Current:   s.playlist.CurrentIndex(),
		Preparing: s.prepTitle,
		Progress:  s.progress,
	}, nil
}

// Wait blocks until any in-flight preparation has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels preparation, waits for it, and saves the playlist.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Session) saveLocked() error {
	if err := playlist.Save(s.cfg.Paths.PlaylistFile, s.playlist); err != nil {
		logging.WarnWithContext(s.logger, "playlist save failed", "playlist_save_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "playlist changes will be lost on exit"),
			logging.String(logging.FieldErrorHint, "check permissions on the data directory"),
		)
		return err
	}
	return nil
}

func (s *Session) publishPlaylist() {
	s.bus.Publish(events.Event{Kind: events.PlaylistChanged})
}
