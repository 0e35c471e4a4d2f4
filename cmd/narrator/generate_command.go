package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"narrator/internal/config"
	"narrator/internal/logging"
	"narrator/internal/narration"
	"narrator/internal/playerrun"
	"narrator/internal/subtitles"
	"narrator/internal/synthesis"
	"narrator/internal/textutil"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var voice string
	var speed float64

	cmd := &cobra.Command{
		Use:   "generate <subtitle>",
		Short: "Synthesize one narration clip per subtitle cue",
		Long: "Synthesize one narration clip per subtitle cue into an output directory.\n" +
			"Clips that already exist are reused, so an interrupted run can simply be repeated.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			subtitlePath, err := expandArg(args[0])
			if err != nil {
				return err
			}
			cues, err := subtitles.ParseFile(subtitlePath)
			if err != nil {
				return err
			}
			if voice == "" {
				voice = cfg.Synthesis.DefaultVoice
			}
			resolved, err := synthesis.Voices(cfg.Synthesis.Voices).Resolve(voice)
			if err != nil {
				return err
			}
			if speed <= 0 {
				speed = cfg.Synthesis.GlobalSpeed
			}
			if outDir == "" {
				base := strings.TrimSuffix(filepath.Base(subtitlePath), filepath.Ext(subtitlePath))
				outDir = filepath.Join(cfg.Paths.NarrationDir, textutil.SanitizeToken(base))
			} else if outDir, err = expandArg(outDir); err != nil {
				return err
			}

			fileLogger, err := logging.NewFromConfig(cfg, false)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			stderr := cmd.ErrOrStderr()
			logger := logging.TeeLogger(fileLogger, logging.FuncHandler{
				Level: slog.LevelWarn,
				Fn: func(level slog.Level, msg string) {
					fmt.Fprintf(stderr, "%s: %s\n", strings.ToLower(level.String()), msg)
				},
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generating %d cues with %s at speed %.2f into %s\n", len(cues), resolved, speed, outDir)
			sampler := logging.NewProgressSampler(10)
			result, err := playerrun.NewWorkflow(cfg, logger).Generate(cmd.Context(), narration.Request{
				Cues:        cues,
				OutputDir:   outDir,
				Voice:       resolved,
				GlobalSpeed: speed,
			}, func(percent int) {
				if sampler.ShouldLog(percent, "") {
					fmt.Fprintf(out, "  %3d%%\n", percent)
				}
			})
			if err != nil {
				return err
			}
			if result.Skipped {
				fmt.Fprintf(out, "Narration for %s is already being generated elsewhere; nothing done\n", outDir)
				return nil
			}
			fmt.Fprintf(out, "Done: %d segments (%d synthesized, %d cached, %d silent) in %s\n",
				len(result.Segments), result.Synthesized, result.Cached, result.Silent,
				result.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: <narration_dir>/<subtitle name>)")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice profile or edge-tts voice name")
	cmd.Flags().Float64Var(&speed, "speed", 0, "Global speaking speed multiplier (default from config)")
	return cmd
}

func expandArg(value string) (string, error) {
	return config.ExpandPath(strings.TrimSpace(value))
}
