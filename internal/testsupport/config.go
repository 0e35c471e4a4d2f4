// Package testsupport builds isolated configs, stub binaries and fixture
// files for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"narrator/internal/config"
)

// ConfigOption adjusts a config built by NewConfig. base is the temp
// directory that holds every path in the config.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns the default config rooted in a fresh temp directory,
// with notifications disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.NarrationDir = filepath.Join(base, "narration")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.PlaylistFile = filepath.Join(cfg.Paths.DataDir, "playlist.json")
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithStubbedBinaries puts no-op executables for names on PATH. With no
// names it stubs mpv, edge-tts and ffprobe.
func WithStubbedBinaries(names ...string) ConfigOption {
	if len(names) == 0 {
		names = []string{"mpv", "edge-tts", "ffprobe"}
	}
	return func(t testing.TB, base string, _ *config.Config) {
		for _, name := range names {
			StubBinary(t, base, name, "exit 0\n")
		}
	}
}

// StubBinary writes a /bin/sh script called name into dir/bin, puts that
// directory first on PATH for the rest of the test, and returns the script
// path.
func StubBinary(t testing.TB, dir, name, body string) string {
	t.Helper()

	binDir := filepath.Join(dir, "bin")
	script := filepath.Join(binDir, name)
	WriteFile(t, script, "#!/bin/sh\n"+body)
	if err := os.Chmod(script, 0o755); err != nil {
		t.Fatalf("chmod stub %s: %v", name, err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return script
}

// BaseDir returns the temp directory NewConfig rooted cfg in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
