package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"narrator/internal/config"
	"narrator/internal/jobstore"
	"narrator/internal/playlist"
	"narrator/internal/session"
)

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Inspect and edit the saved playlist",
	}
	cmd.AddCommand(newPlaylistAddCommand(ctx))
	cmd.AddCommand(newPlaylistListCommand(ctx))
	cmd.AddCommand(newPlaylistRemoveCommand(ctx))
	cmd.AddCommand(newPlaylistSelectCommand(ctx))
	return cmd
}

func newPlaylistAddCommand(ctx *commandContext) *cobra.Command {
	var voice string
	cmd := &cobra.Command{
		Use:   "add <video> <subtitle>",
		Short: "Append a video and its subtitle track",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, err := expandArg(args[0])
			if err != nil {
				return err
			}
			subtitle, err := expandArg(args[1])
			if err != nil {
				return err
			}
			return ctx.withPlayerLock(func(cfg *config.Config) error {
				entry, err := session.ValidateEntry(cfg, video, subtitle, voice)
				if err != nil {
					return err
				}
				pl, err := playlist.Load(cfg.Paths.PlaylistFile)
				if err != nil {
					return err
				}
				idx, err := pl.Add(entry)
				if err != nil {
					return err
				}
				if err := playlist.Save(cfg.Paths.PlaylistFile, pl); err != nil {
					return err
				}
				if err := ctx.withStore(func(store *jobstore.Store) error {
					_, err := store.Register(cmd.Context(), session.JobFor(cfg, entry))
					return err
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s (voice %s)\n", idx+1, entry.Title(), entry.Voice)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&voice, "voice", "", "Voice profile or edge-tts voice name")
	return cmd
}

func newPlaylistListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show playlist entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			pl, err := playlist.Load(cfg.Paths.PlaylistFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if pl.Len() == 0 {
				fmt.Fprintln(out, "Playlist is empty")
				return nil
			}
			rows := make([][]string, 0, pl.Len())
			for i, entry := range pl.Entries() {
				marker := ""
				if i == pl.CurrentIndex() {
					marker = "▶"
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					marker,
					entry.Title(),
					entry.Voice,
					yesNo(entry.NarrationReady),
					entry.Key(),
				})
			}
			fmt.Fprintln(out, tableSpec{
				headers: []string{"#", "", "Title", "Voice", "Narration", "Key"},
				right:   []int{0},
			}.render(rows))
			return nil
		},
	}
}

func newPlaylistRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <number>",
		Short: "Remove an entry and delete its narration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPlayerLock(func(cfg *config.Config) error {
				pl, err := playlist.Load(cfg.Paths.PlaylistFile)
				if err != nil {
					return err
				}
				i, err := entryNumber(args[0], pl.Len())
				if err != nil {
					return err
				}
				entry, err := pl.Remove(i)
				if err != nil {
					return err
				}
				if err := playlist.Save(cfg.Paths.PlaylistFile, pl); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if err := playlist.PurgeNarration(cfg.Paths.NarrationDir, entry); err != nil {
					fmt.Fprintf(out, "warning: %v\n", err)
				}
				if err := ctx.withStore(func(store *jobstore.Store) error {
					return store.Delete(cmd.Context(), entry.Key())
				}); err != nil {
					fmt.Fprintf(out, "warning: ledger: %v\n", err)
				}
				fmt.Fprintf(out, "Removed %s\n", entry.Title())
				return nil
			})
		},
	}
}

func newPlaylistSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <number>",
		Short: "Make an entry current for the next player start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPlayerLock(func(cfg *config.Config) error {
				pl, err := playlist.Load(cfg.Paths.PlaylistFile)
				if err != nil {
					return err
				}
				i, err := entryNumber(args[0], pl.Len())
				if err != nil {
					return err
				}
				if err := pl.Select(i); err != nil {
					return err
				}
				if err := playlist.Save(cfg.Paths.PlaylistFile, pl); err != nil {
					return err
				}
				entry, _ := pl.Current()
				fmt.Fprintf(cmd.OutOrStdout(), "Current entry: #%d %s\n", i+1, entry.Title())
				return nil
			})
		},
	}
}

// entryNumber converts a 1-based entry number to an index.
func entryNumber(arg string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("invalid entry number %q", arg)
	}
	if n < 1 || n > count {
		return 0, fmt.Errorf("entry %d out of range (playlist has %d entries)", n, count)
	}
	return n - 1, nil
}
