package narration

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"narrator/internal/logging"
	"narrator/internal/segments"
	"narrator/internal/services"
	"narrator/internal/subtitles"
	"narrator/internal/synthesis"
)

// LockFileName is the advisory lock held inside an output directory while a
// run writes to it.
const LockFileName = ".narration.lock"

// DurationProber measures a synthesized clip.
type DurationProber interface {
	DurationMs(ctx context.Context, path string) (int64, error)
}

// Request describes one generation run.
type Request struct {
	// Key identifies the playlist entry; empty falls back to OutputDir.
	Key         string
	Cues        []subtitles.Cue
	OutputDir   string
	Voice       string
	GlobalSpeed float64
	// RunID correlates the run in logs; empty assigns a fresh one.
	RunID string
}

// Result summarizes a run.
type Result struct {
	RunID    string
	Segments []segments.Segment
	// Skipped is set when another run already owns the entry or directory.
	Skipped     bool
	Synthesized int
	Cached      int
	Silent      int
	Elapsed     time.Duration
}

// ProgressFunc receives the completed percentage after every cue.
type ProgressFunc func(percent int)

// Workflow runs narration generation.
type Workflow struct {
	synth  synthesis.Service
	prober DurationProber
	logger *slog.Logger

	mu      sync.Mutex
	running map[string]struct{}
}

// NewWorkflow constructs a workflow. prober may be nil.
func NewWorkflow(synth synthesis.Service, prober DurationProber, logger *slog.Logger) *Workflow {
	return &Workflow{
		synth:   synth,
		prober:  prober,
		logger:  logging.NewComponentLogger(logger, "narration"),
		running: make(map[string]struct{}),
	}
}

// SegmentPath returns the clip path for the cue at zero-based index i.
func SegmentPath(outputDir string, i int) string {
	return filepath.Join(outputDir, fmt.Sprintf("segment_%d.mp3", i+1))
}

// Running reports whether a run for key is in progress in this process.
func (w *Workflow) Running(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.running[key]
	return ok
}

// Generate synthesizes or reuses one clip per cue and returns the resulting
// segments. Cues with empty intervals still get a clip but are left out of the
// segments. Cues with no letter or digit get neither; their clip number is
// left unused and they still count toward progress.
func (w *Workflow) Generate(ctx context.Context, req Request, progress ProgressFunc) (Result, error) {
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return Result{}, services.Wrap(services.ErrValidation, "narration", "generate", "output directory is required", nil)
	}
	if w.synth == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "narration", "generate", "no synthesis service", nil)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		key = outputDir
	}

	if !w.claim(key) {
		w.logger.Info("narration already running; request ignored",
			logging.String(logging.FieldEntry, key),
			logging.String(logging.FieldEventType, "narration_reentrancy_skip"),
		)
		return Result{Skipped: true}, nil
	}
	defer w.release(key)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "narration", "generate", "create output directory", err)
	}
	dirLock := flock.New(filepath.Join(outputDir, LockFileName))
	locked, err := dirLock.TryLock()
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "narration", "generate", "lock output directory", err)
	}
	if !locked {
		w.logger.Info("narration directory locked by another process; request ignored",
			logging.String(logging.FieldEntry, key),
			logging.String("output_dir", outputDir),
			logging.String(logging.FieldEventType, "narration_reentrancy_skip"),
		)
		return Result{Skipped: true}, nil
	}
	defer func() { _ = dirLock.Unlock() }()

	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = services.WithRunID(services.WithStage(services.WithEntryKey(ctx, key), "narration"), runID)
	logger := logging.WithContext(ctx, w.logger)

	result := Result{RunID: runID}
	start := time.Now()
	total := len(req.Cues)
	logger.Info("narration started",
		logging.String(logging.FieldEventType, "narration_start"),
		logging.Int("cues", total),
		logging.String("voice", req.Voice),
		logging.Float64("global_speed", req.GlobalSpeed),
		logging.String("output_dir", outputDir),
	)

	produced := make([]segments.Segment, 0, total)
	for i, cue := range req.Cues {
		if err := ctx.Err(); err != nil {
			logger.Info("narration cancelled", logging.Int(logging.FieldSegment, i+1))
			return Result{}, err
		}

		seg, outcome, err := w.produce(ctx, logger, req, outputDir, i, cue)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			logging.ErrorWithContext(logger, "narration failed", "narration_failed",
				logging.Int(logging.FieldSegment, i+1),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
			)
			return Result{}, err
		}
		switch outcome {
		case outcomeSynthesized:
			result.Synthesized++
		case outcomeCached:
			result.Cached++
		case outcomeSilent:
			result.Silent++
		}
		if outcome != outcomeSilent && cue.EndMs > cue.StartMs {
			produced = append(produced, seg)
		}
		if progress != nil {
			progress((i + 1) * 100 / total)
		}
	}

	result.Segments = produced
	result.Elapsed = time.Since(start)
	logger.Info("narration complete",
		logging.String(logging.FieldEventType, "narration_complete"),
		logging.Int("segments", len(produced)),
		logging.Int("synthesized", result.Synthesized),
		logging.Int("cached", result.Cached),
		logging.Int("silent", result.Silent),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

type outcome int

const (
	outcomeSynthesized outcome = iota
	outcomeCached
	outcomeSilent
)

func (w *Workflow) produce(ctx context.Context, logger *slog.Logger, req Request, outputDir string, i int, cue subtitles.Cue) (segments.Segment, outcome, error) {
	seg := segments.Segment{
		AudioPath: SegmentPath(outputDir, i),
		StartMs:   cue.StartMs,
		EndMs:     cue.EndMs,
		Text:      cue.Text,
	}
	if !subtitles.Speakable(cue) {
		logger.Debug("cue has no speakable text; skipped", logging.Int(logging.FieldSegment, i+1))
		return seg, outcomeSilent, nil
	}

	result := outcomeSynthesized
	if clipExists(seg.AudioPath) {
		seg.RateApplied = segments.RateCached
		result = outcomeCached
	} else {
		percent := SpeechRate(utf8.RuneCountInString(cue.Text), int(cue.DurationMs()), req.GlobalSpeed)
		seg.RateApplied = FormatRate(percent)
		err := w.synth.Synthesize(ctx, synthesis.Request{
			Text:        cue.Text,
			Voice:       req.Voice,
			RatePercent: percent,
			OutputPath:  seg.AudioPath,
		})
		if err != nil {
			return segments.Segment{}, result, &SynthesisError{CueIndex: i, Text: cue.Text, Err: err}
		}
	}

	if w.prober != nil {
		clipMs, err := w.prober.DurationMs(ctx, seg.AudioPath)
		if err != nil {
			logging.WarnWithContext(logger, "clip probe failed", "clip_probe_failed",
				logging.Int(logging.FieldSegment, i+1),
				logging.Error(err),
				logging.String(logging.FieldImpact, "clip length shown as unknown"),
				logging.String(logging.FieldErrorHint, "check ffprobe installation"),
			)
		} else {
			seg.ClipMs = clipMs
			if over := clipMs - cue.DurationMs(); over > 0 && cue.DurationMs() > 0 {
				logger.Debug("clip overruns cue",
					logging.Int(logging.FieldSegment, i+1),
					logging.Int64("overrun_ms", over),
				)
			}
		}
	}
	return seg, result, nil
}

func clipExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

func (w *Workflow) claim(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.running[key]; busy {
		return false
	}
	w.running[key] = struct{}{}
	return true
}

func (w *Workflow) release(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.running, key)
}
