package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSynthesis()
	c.normalizePlayer()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.data_dir", &c.Paths.DataDir, defaultDataDir},
		{"paths.narration_dir", &c.Paths.NarrationDir, defaultNarrationDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.playlist_file", &c.Paths.PlaylistFile, defaultPlaylistFile},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeSynthesis() {
	c.Synthesis.Binary = strings.TrimSpace(c.Synthesis.Binary)
	if c.Synthesis.Binary == "" {
		c.Synthesis.Binary = defaultSynthesisBinary
	}
	c.Synthesis.DefaultVoice = strings.TrimSpace(c.Synthesis.DefaultVoice)
	if c.Synthesis.DefaultVoice == "" {
		c.Synthesis.DefaultVoice = defaultVoice
	}
	if c.Synthesis.GlobalSpeed == 0 {
		c.Synthesis.GlobalSpeed = defaultGlobalSpeed
	}
	if c.Synthesis.TimeoutSeconds <= 0 {
		c.Synthesis.TimeoutSeconds = defaultSynthesisTimeout
	}
	voices := make(map[string]string, len(c.Synthesis.Voices))
	for name, voice := range c.Synthesis.Voices {
		name = strings.ToLower(strings.TrimSpace(name))
		voice = strings.TrimSpace(voice)
		if name == "" || voice == "" {
			continue
		}
		voices[name] = voice
	}
	if len(voices) == 0 {
		voices = DefaultVoices()
	}
	c.Synthesis.Voices = voices
}

func (c *Config) normalizePlayer() {
	c.Player.MpvBinary = strings.TrimSpace(c.Player.MpvBinary)
	if c.Player.MpvBinary == "" {
		c.Player.MpvBinary = defaultMpvBinary
	}
	if c.Player.TickIntervalMs == 0 {
		c.Player.TickIntervalMs = defaultTickIntervalMs
	}
	if c.Player.IPCTimeoutSeconds <= 0 {
		c.Player.IPCTimeoutSeconds = defaultIPCTimeoutSeconds
	}
	c.FFprobe.Binary = strings.TrimSpace(c.FFprobe.Binary)
	if c.FFprobe.Binary == "" {
		c.FFprobe.Binary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NARRATOR_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
