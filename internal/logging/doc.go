// Package logging assembles structured slog loggers and formatting helpers used
// across narrator.
//
// It owns the console ("pretty") and JSON handlers, level and output plumbing,
// and context-aware helpers that tag log lines with playlist entry keys, stage
// names, and correlation IDs. The interactive player routes logs to the log
// file only so the terminal UI is not disturbed.
package logging
