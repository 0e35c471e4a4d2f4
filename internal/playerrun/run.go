// Package playerrun assembles and runs the interactive player: mpv
// pipelines, the synchronization loop, the session and the terminal UI.
package playerrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"narrator/internal/config"
	"narrator/internal/events"
	"narrator/internal/jobstore"
	"narrator/internal/logging"
	"narrator/internal/media/ffprobe"
	"narrator/internal/media/mpv"
	"narrator/internal/narration"
	"narrator/internal/notifications"
	"narrator/internal/player"
	"narrator/internal/session"
	"narrator/internal/synthesis"
	"narrator/internal/tui"
)

// ErrAlreadyRunning is returned when another player holds the lock.
var ErrAlreadyRunning = errors.New("another narrator player is already running")

// Options configures a player run.
type Options struct {
	LogLevel string
	// WindowID embeds video output in an existing window. Empty lets mpv
	// open its own.
	WindowID string
	// Summary receives the session's errors after the UI exits. Nil skips it.
	Summary io.Writer
}

// Run blocks until the user quits the player or a signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	ctx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	lock, err := AcquireLock(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	logger, logPath, err := newRunLogger(cfg, opts.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir, "narrator-*.log", logPath)
	logDependencySnapshot(logger, cfg)

	store, err := jobstore.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()
	if n, err := store.ResetStuck(ctx); err != nil {
		logger.Warn("reset stuck jobs failed", logging.Error(err))
	} else if n > 0 {
		logger.Info("interrupted narration jobs marked failed", logging.Int64("jobs", n))
	}

	video, narrationOut, err := startPipelines(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer video.Close()
	defer narrationOut.Close()

	bus := events.NewBus(256)
	engine := player.NewEngine(video, narrationOut, bus, player.Options{
		VideoVolume:      cfg.Player.VideoVolume,
		NarrationVolume:  cfg.Player.NarrationVolume,
		NarrationEnabled: cfg.Player.NarrationEnabled,
		Logger:           logger,
	})
	loop := player.NewLoop(engine, time.Duration(cfg.Player.TickIntervalMs)*time.Millisecond, logger)
	loopCtx, stopLoop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = loop.Run(loopCtx)
	}()
	defer func() {
		stopLoop()
		wg.Wait()
	}()

	sess, err := session.New(ctx, session.Options{
		Config:    cfg,
		Transport: loop,
		Generator: NewWorkflow(cfg, logger),
		Store:     store,
		Notifier:  notifications.NewService(cfg),
		Bus:       bus,
		Logger:    logger,
		Target:    player.RenderTarget(opts.WindowID),
	})
	if err != nil {
		return err
	}

	evs, unsubscribe := bus.Subscribe(256)
	logger.Info("narrator player started",
		logging.String(logging.FieldEventType, "player_start"),
		logging.String("log_path", logPath),
	)
	uiErr := tui.Run(ctx, sess, evs)
	unsubscribe()

	if err := sess.Close(); err != nil {
		logger.Warn("playlist save on exit failed", logging.Error(err))
	}
	logger.Info("narrator player shutting down", logging.Uint64("dropped_events", bus.Dropped()))
	if opts.Summary != nil {
		writeErrorSummary(opts.Summary, bus.Recent(0), logPath)
	}
	return uiErr
}

// AcquireLock takes the single-instance player lock. Callers release it
// with Unlock.
func AcquireLock(cfg *config.Config) (*flock.Flock, error) {
	lock := flock.New(cfg.PlayerLockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire player lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return lock, nil
}

// newRunLogger writes to a per-run log file only; the terminal belongs to
// the UI.
func newRunLogger(cfg *config.Config, level string) (*slog.Logger, string, error) {
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("narrator-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{logPath},
	})
	if err != nil {
		return nil, "", err
	}
	if err := ensureCurrentLogPointer(cfg.LogFilePath(), logPath); err != nil {
		logger.Debug("log pointer update failed", logging.Error(err))
	}
	return logger, logPath, nil
}

func startPipelines(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mpv.Client, *mpv.Client, error) {
	runDir := filepath.Join(cfg.Paths.DataDir, "run")
	timeout := time.Duration(cfg.Player.IPCTimeoutSeconds) * time.Second

	video, err := mpv.Start(ctx, mpv.Options{
		Binary:       cfg.Player.MpvBinary,
		SocketPath:   filepath.Join(runDir, "video.sock"),
		RewindOnStop: true,
		Timeout:      timeout,
		Logger:       logging.NewComponentLogger(logger, "mpv-video"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("start video pipeline: %w", err)
	}
	narrationOut, err := mpv.Start(ctx, mpv.Options{
		Binary:     cfg.Player.MpvBinary,
		SocketPath: filepath.Join(runDir, "narration.sock"),
		AudioOnly:  true,
		Timeout:    timeout,
		Logger:     logging.NewComponentLogger(logger, "mpv-narration"),
	})
	if err != nil {
		_ = video.Close()
		return nil, nil, fmt.Errorf("start narration pipeline: %w", err)
	}
	return video, narrationOut, nil
}

// NewWorkflow builds the edge-tts narration workflow described by cfg.
func NewWorkflow(cfg *config.Config, logger *slog.Logger) *narration.Workflow {
	synth := synthesis.NewEdgeTTS(cfg.Synthesis.Binary, time.Duration(cfg.Synthesis.TimeoutSeconds)*time.Second, logger)
	var prober narration.DurationProber
	if cfg.FFprobe.ProbeClips {
		prober = ffprobe.Prober{Binary: cfg.FFprobe.Binary}
	}
	return narration.NewWorkflow(synth, prober, logger)
}

func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("mpv_available", binaryAvailable(cfg.Player.MpvBinary)),
		logging.String("mpv_binary", cfg.Player.MpvBinary),
		logging.Bool("edge_tts_available", binaryAvailable(cfg.Synthesis.Binary)),
		logging.String("edge_tts_binary", cfg.Synthesis.Binary),
		logging.Bool("ffprobe_available", binaryAvailable(cfg.FFprobe.Binary)),
		logging.Bool("probe_clips", cfg.FFprobe.ProbeClips),
		logging.Bool("ntfy_configured", cfg.Notifications.NtfyTopic != ""),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
