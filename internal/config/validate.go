package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validatePlayer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	speed := c.Synthesis.GlobalSpeed
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return fmt.Errorf("synthesis.global_speed must be a positive number, got %v", speed)
	}
	if speed > 4 {
		return fmt.Errorf("synthesis.global_speed %.2f is out of range (max 4)", speed)
	}
	if strings.TrimSpace(c.ResolveVoice("")) == "" {
		return errors.New("synthesis.default_voice must resolve to a voice")
	}
	return nil
}

func (c *Config) validatePlayer() error {
	if c.Player.TickIntervalMs < 10 || c.Player.TickIntervalMs > 1000 {
		return fmt.Errorf("player.tick_interval_ms must be between 10 and 1000, got %d", c.Player.TickIntervalMs)
	}
	if c.Player.VideoVolume < 0 || c.Player.VideoVolume > 100 {
		return fmt.Errorf("player.video_volume must be between 0 and 100, got %d", c.Player.VideoVolume)
	}
	if c.Player.NarrationVolume < 0 || c.Player.NarrationVolume > 100 {
		return fmt.Errorf("player.narration_volume must be between 0 and 100, got %d", c.Player.NarrationVolume)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
