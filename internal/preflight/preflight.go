package preflight

import (
	"context"

	"narrator/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes the directory and service checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Narration directory", cfg.Paths.NarrationDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckPlaylistFile(cfg.Paths.PlaylistFile),
		CheckJobStore(ctx, cfg.JobStorePath()),
	}
	if cfg.Notifications.NtfyTopic != "" {
		ntfy := CheckNtfy(ctx, cfg.Notifications.NtfyTopic)
		ntfy.Optional = true
		results = append(results, ntfy)
	}
	return results
}

// Failed returns the required results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
