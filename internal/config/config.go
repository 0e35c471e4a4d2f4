package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	NarrationDir string `toml:"narration_dir"`
	LogDir       string `toml:"log_dir"`
	PlaylistFile string `toml:"playlist_file"`
}

// Synthesis configures the edge-tts speech synthesizer.
type Synthesis struct {
	Binary         string            `toml:"binary"`
	DefaultVoice   string            `toml:"default_voice"`
	GlobalSpeed    float64           `toml:"global_speed"`
	TimeoutSeconds int               `toml:"timeout_seconds"`
	Voices         map[string]string `toml:"voices"`
}

// Player configures the mpv pipelines and the synchronization loop.
type Player struct {
	MpvBinary         string `toml:"mpv_binary"`
	TickIntervalMs    int    `toml:"tick_interval_ms"`
	VideoVolume       int    `toml:"video_volume"`
	NarrationVolume   int    `toml:"narration_volume"`
	NarrationEnabled  bool   `toml:"narration_enabled"`
	IPCTimeoutSeconds int    `toml:"ipc_timeout_seconds"`
}

// FFprobe configures clip duration probing.
type FFprobe struct {
	Binary     string `toml:"binary"`
	ProbeClips bool   `toml:"probe_clips"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Generation     bool   `toml:"generation"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for narrator.
//
// Configuration sections by subsystem:
//   - Paths: data, narration, and log directories plus the playlist file
//   - Synthesis: edge-tts binary, voice profiles, and speaking speed
//   - Player: mpv binary, tick cadence, and initial volumes
//   - FFprobe: clip duration probing
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Synthesis     Synthesis     `toml:"synthesis"`
	Player        Player        `toml:"player"`
	FFprobe       FFprobe       `toml:"ffprobe"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the config at path, or searches the default locations when
// path is empty, then fills defaults and validates. It also reports which
// file was used and whether it existed; a missing file yields the defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// decodeFile rejects keys the Config does not declare so typos surface
// instead of silently falling back to defaults.
func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	dec := toml.NewDecoder(file).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locate returns the explicit path when given. Otherwise it tries the user
// config file and then ./narrator.toml, falling back to the user path.
func locate(path string) (string, bool, error) {
	var candidates []string
	if path != "" {
		candidates = []string{path}
	} else {
		candidates = []string{defaultConfigPath, "narrator.toml"}
	}

	var first string
	for i, candidate := range candidates {
		expanded, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if i == 0 {
			first = expanded
		}
		info, err := os.Stat(expanded)
		switch {
		case err == nil && !info.IsDir():
			return expanded, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return first, false, nil
}

// EnsureDirectories creates the data, narration, and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.NarrationDir, c.Paths.LogDir}
	if dir := filepath.Dir(c.Paths.PlaylistFile); dir != "" && dir != "." {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JobStorePath returns the SQLite ledger location inside the data directory.
func (c *Config) JobStorePath() string {
	return filepath.Join(c.Paths.DataDir, "jobs.db")
}

// PlayerLockPath returns the single-instance lock file for the interactive player.
func (c *Config) PlayerLockPath() string {
	return filepath.Join(c.Paths.DataDir, "player.lock")
}

// LogFilePath returns the main log file path.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "narrator.log")
}

// ResolveVoice maps a profile name to its edge-tts voice. Unknown names are
// returned unchanged so raw voice identifiers pass through.
func (c *Config) ResolveVoice(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.Synthesis.DefaultVoice
	}
	if voice, ok := c.Synthesis.Voices[strings.ToLower(name)]; ok {
		return voice
	}
	return name
}

// expandPath resolves a leading "~" to the home directory and makes the
// result absolute.
func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath applies the same "~" and absolute-path rules the config uses to
// user-supplied paths.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// CreateSample writes the commented sample config to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
