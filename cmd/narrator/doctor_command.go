package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"narrator/internal/deps"
	"narrator/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories and notification settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			problems := 0

			fmt.Fprintln(out, sectionHeader("Dependencies", colorize))
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			for _, status := range statuses {
				level, detail := dependencyLevel(status)
				fmt.Fprintln(out, checkLine(status.Name, level, detail, colorize))
			}
			problems += len(deps.Missing(statuses))

			fmt.Fprintln(out, sectionHeader("Environment", colorize))
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				level := levelOK
				switch {
				case !result.Passed && result.Optional:
					level = levelWarn
				case !result.Passed:
					level = levelFail
				}
				fmt.Fprintln(out, checkLine(result.Name, level, result.Detail, colorize))
			}
			problems += len(preflight.Failed(results))

			if problems > 0 {
				return errors.New("doctor found problems; fix the failed checks above")
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}
}

func dependencyLevel(status deps.Status) (checkLevel, string) {
	switch {
	case status.Available:
		detail := status.Path
		if status.Version != "" {
			detail += " (" + status.Version + ")"
		}
		return levelOK, detail
	case status.Optional:
		return levelWarn, status.Detail
	default:
		return levelFail, status.Detail
	}
}
