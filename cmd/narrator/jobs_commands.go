package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"narrator/internal/jobstore"
	"narrator/internal/playlist"
	"narrator/internal/textutil"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List narration generation jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseStatuses(statuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *jobstore.Store) error {
				jobs, err := store.List(cmd.Context(), filter...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No narration jobs")
					return nil
				}
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						job.Key,
						string(job.Status),
						fmt.Sprintf("%d%%", job.Progress),
						strconv.Itoa(job.SegmentCount),
						fmt.Sprintf("%d/%d/%d", job.Synthesized, job.Cached, job.Silent),
						job.UpdatedAt.Local().Format(time.DateTime),
						textutil.Truncate(job.ErrorMessage, 40),
					})
				}
				fmt.Fprintln(out, tableSpec{
					headers: []string{"Key", "Status", "Progress", "Segments", "New/Cached/Silent", "Updated", "Error"},
					right:   []int{2, 3},
					caption: statsCaption(stats),
				}.render(rows))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only show jobs with these statuses (pending, generating, ready, failed)")
	return cmd
}

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "segments <entry>",
		Short: "Show the narration manifest of a playlist entry",
		Long:  "Show the narration manifest of a playlist entry, given as its playlist number or job key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			key := strings.TrimSpace(args[0])
			if _, convErr := strconv.Atoi(key); convErr == nil {
				pl, err := playlist.Load(cfg.Paths.PlaylistFile)
				if err != nil {
					return err
				}
				i, err := entryNumber(key, pl.Len())
				if err != nil {
					return err
				}
				entry, _ := pl.At(i)
				key = entry.Key()
			}
			return ctx.withStore(func(store *jobstore.Store) error {
				job, err := store.Get(cmd.Context(), key)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("no narration job for %s", key)
				}
				out := cmd.OutOrStdout()
				if job.Status != jobstore.StatusReady {
					fmt.Fprintf(out, "Narration for %s is %s\n", key, job.Status)
					return nil
				}
				segs, err := store.Segments(cmd.Context(), key)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(segs))
				for i, seg := range segs {
					clip := "-"
					if seg.ClipMs > 0 {
						clip = formatMs(seg.ClipMs)
					}
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						formatMs(seg.StartMs),
						formatMs(seg.EndMs),
						seg.RateApplied,
						clip,
						textutil.Truncate(seg.Text, 50),
					})
				}
				fmt.Fprintln(out, tableSpec{
					headers: []string{"#", "Start", "End", "Rate", "Clip", "Text"},
					right:   []int{0, 1, 2, 4},
					caption: job.OutputDir,
				}.render(rows))
				return nil
			})
		},
	}
}

func parseStatuses(values []string) ([]jobstore.Status, error) {
	out := make([]jobstore.Status, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		found := false
		for _, status := range jobstore.Statuses() {
			if string(status) == value {
				out = append(out, status)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown status %q", value)
		}
	}
	return out, nil
}

func statsCaption(stats map[jobstore.Status]int) string {
	parts := make([]string, 0, len(stats))
	for _, status := range jobstore.Statuses() {
		if n := stats[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	return strings.Join(parts, ", ")
}

// formatMs renders milliseconds as H:MM:SS.mmm.
func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms%1000)
}
