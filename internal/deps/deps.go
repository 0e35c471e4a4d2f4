package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external binary narrator runs.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are passed to the binary to read its version.
	VersionArgs []string
}

// Status is a Requirement plus what the lookup found.
type Status struct {
	Requirement
	Available bool
	Path      string
	Version   string
	Detail    string
}

const versionTimeout = 5 * time.Second

// CheckBinaries resolves each requirement on PATH and, for the ones found,
// reads a version string when VersionArgs is set.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		results[i] = check(ctx, req)
	}
	return results
}

func check(ctx context.Context, req Requirement) Status {
	s := Status{Requirement: req}
	if req.Command == "" {
		s.Detail = "command not configured"
		return s
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		s.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return s
	}
	s.Available, s.Path = true, path
	if len(req.VersionArgs) > 0 {
		s.Version = firstLine(ctx, path, req.VersionArgs)
	}
	return s
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}

// firstLine runs binary and returns the first non-blank line it prints, or
// "" on failure.
func firstLine(ctx context.Context, binary string, args []string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, args...).CombinedOutput()
	if err != nil {
		return ""
	}
	for line := range strings.Lines(string(out)) {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
