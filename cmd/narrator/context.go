package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"narrator/internal/config"
	"narrator/internal/jobstore"
	"narrator/internal/playerrun"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the config once per invocation and creates its
// directories.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err == nil {
			err = cfg.EnsureDirectories()
		}
		c.config, c.configErr = cfg, err
	})
	if c.configErr != nil {
		return nil, c.configErr
	}
	return c.config, nil
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) withStore(fn func(*jobstore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobstore.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// withPlayerLock runs fn while holding the player lock so offline edits
// never race a running player's saves.
func (c *commandContext) withPlayerLock(fn func(*config.Config) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := playerrun.AcquireLock(cfg)
	if errors.Is(err, playerrun.ErrAlreadyRunning) {
		return fmt.Errorf("%w; quit the player before editing the playlist", err)
	}
	if err != nil {
		return err
	}
	defer func(l *flock.Flock) { _ = l.Unlock() }(lock)
	return fn(cfg)
}

// skipConfigAnnotation marks commands that load (or create) the config
// themselves instead of through the root pre-run hook.
const skipConfigAnnotation = "narrator/skip-config"

func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
