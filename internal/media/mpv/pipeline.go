package mpv

import (
	"context"
	"math"
	"os"
	"strconv"

	"narrator/internal/player"
	"narrator/internal/services"
)

var _ player.Pipeline = (*Client)(nil)

// Load replaces the current file with resource, paused at its start.
func (c *Client) Load(ctx context.Context, resource string, target player.RenderTarget) error {
	info, err := os.Stat(resource)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "player", "load media", resource, err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "player", "load media", resource+" is a directory", nil)
	}
	if target != "" {
		wid, err := strconv.ParseInt(string(target), 10, 64)
		if err != nil {
			return services.Wrap(services.ErrValidation, "player", "load media", "render target must be a window id", err)
		}
		if err := c.SetProperty(ctx, "wid", wid); err != nil {
			return err
		}
	}
	if err := c.SetProperty(ctx, "pause", true); err != nil {
		return err
	}
	_, err = c.Command(ctx, "loadfile", resource, "replace")
	return err
}

func (c *Client) Play(ctx context.Context) error {
	return c.SetProperty(ctx, "pause", false)
}

func (c *Client) Pause(ctx context.Context) error {
	return c.SetProperty(ctx, "pause", true)
}

func (c *Client) Stop(ctx context.Context) error {
	if !c.rewindOnStop {
		_, err := c.Command(ctx, "stop")
		return err
	}
	if err := c.SetProperty(ctx, "pause", true); err != nil {
		return err
	}
	_, err := c.Command(ctx, "seek", 0, "absolute+exact")
	return err
}

func (c *Client) SetVolume(ctx context.Context, level int) error {
	return c.SetProperty(ctx, "volume", level)
}

func (c *Client) Seek(ctx context.Context, fraction float64) error {
	_, err := c.Command(ctx, "seek", fraction*100, "absolute-percent+exact")
	return err
}

func (c *Client) Time(ctx context.Context) (int64, error) {
	seconds, err := c.FloatProperty(ctx, "time-pos")
	if err != nil {
		return 0, err
	}
	return int64(math.Round(seconds * 1000)), nil
}

func (c *Client) Length(ctx context.Context) (int64, error) {
	seconds, err := c.FloatProperty(ctx, "duration")
	if err != nil {
		return 0, err
	}
	return int64(math.Round(seconds * 1000)), nil
}
