package main

import (
	"github.com/spf13/cobra"

	"narrator/internal/playerrun"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var windowID string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Open the interactive player for the saved playlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return playerrun.Run(cmd.Context(), cfg, playerrun.Options{
				LogLevel: logLevel,
				WindowID: windowID,
				Summary:  cmd.ErrOrStderr(),
			})
		},
	}
	cmd.Flags().StringVar(&windowID, "wid", "", "Embed video output in an existing X11 window id")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}
