package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"narrator/internal/config"
	"narrator/internal/deps"
	"narrator/internal/jobstore"
	"narrator/internal/playlist"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckPlaylistFile reports whether the saved playlist decodes. A missing
// file passes because the player starts with an empty playlist.
func CheckPlaylistFile(path string) Result {
	const name = "Playlist"
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
	}
	p, err := playlist.Load(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v; it will be replaced on next save)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", path, p.Len())}
}

// CheckJobStore opens the narration job ledger, creating it when missing,
// and reports how many jobs it holds.
func CheckJobStore(ctx context.Context, path string) Result {
	const name = "Job ledger"
	store, err := jobstore.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", store.Path(), err)}
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", store.Path(), err)}
	}
	total := 0
	for _, n := range stats {
		total += n
	}
	detail := fmt.Sprintf("%s (%d jobs", store.Path(), total)
	if n := stats[jobstore.StatusFailed]; n > 0 {
		detail += fmt.Sprintf(", %d failed", n)
	}
	return Result{Name: name, Passed: true, Detail: detail + ")"}
}

// CheckNtfy polls the ntfy topic without publishing anything.
func CheckNtfy(ctx context.Context, topic string) Result {
	const name = "ntfy"

	base := strings.TrimRight(strings.TrimSpace(topic), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing topic url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/json?poll=1&since=none", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("topic check failed (%v)", err)}
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("topic check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "topic requires authentication"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("topic check failed (%d)", resp.StatusCode)}
	}
}

// SystemRequirements lists the binaries cfg needs.
func SystemRequirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{
			Name:        "mpv",
			Command:     cfg.Player.MpvBinary,
			Description: "Required for video and narration playback",
			VersionArgs: []string{"--version"},
		},
		{
			Name:        "edge-tts",
			Command:     cfg.Synthesis.Binary,
			Description: "Required for narration synthesis",
			VersionArgs: []string{"--version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobe.Binary,
			Description: "Measures synthesized clip durations",
			Optional:    !cfg.FFprobe.ProbeClips,
			VersionArgs: []string{"-version"},
		},
	}
}

// CheckSystemDeps evaluates all external binaries for cfg.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ctx, SystemRequirements(cfg))
}
