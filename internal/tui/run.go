package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"narrator/internal/events"
)

// Run shows the player UI until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctrl Controller, evs <-chan events.Event) error {
	p := tea.NewProgram(New(ctrl, evs), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
