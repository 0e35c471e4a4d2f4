// Package tui is the terminal front end of the player: a bubbletea model
// that renders the session snapshot and forwards key presses to it.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"narrator/internal/events"
	"narrator/internal/player"
	"narrator/internal/session"
)

const commandTimeout = 10 * time.Second

// Controller is the session surface the model drives.
type Controller interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
	PlayCurrent(ctx context.Context) error
	Select(ctx context.Context, i int) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	TogglePlayback(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, fraction float64) error
	SeekBy(ctx context.Context, delta time.Duration) error
	AdjustVolume(ctx context.Context, delta int) error
	ToggleNarration(ctx context.Context) error
}

// Model is the root bubbletea model.
type Model struct {
	ctrl   Controller
	events <-chan events.Event

	snap   session.Snapshot
	cursor int

	width  int
	height int

	statusText     string
	errorMessage   string
	errorTransient bool
	closed         bool
}

// New creates a model reading events from evs. evs may be nil.
func New(ctrl Controller, evs <-chan events.Event) Model {
	return Model{
		ctrl:       ctrl,
		events:     evs,
		snap:       session.Snapshot{Current: -1, Playback: player.PlaybackState{ActiveSegment: -1}},
		statusText: "Loading playlist...",
	}
}

// Init fetches the first snapshot and starts listening for events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(snapshotCmd(m.ctrl), waitEventCmd(m.events))
}

func snapshotCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		snap, err := ctrl.Snapshot(ctx)
		if err != nil {
			return SnapshotErrorMsg{Err: err}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

func waitEventCmd(evs <-chan events.Event) tea.Cmd {
	if evs == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-evs
		if !ok {
			return EventsClosedMsg{}
		}
		return EventMsg{Event: evt}
	}
}

// actionCmd runs fn against the controller off the update loop.
func actionCmd(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return CommandErrorMsg{Err: err}
		}
		return nil
	}
}

func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SnapshotMsg:
		m.snap = msg.Snapshot
		if len(m.snap.Entries) == 0 {
			m.cursor = 0
			m.statusText = "Playlist is empty. Add videos with: narrator playlist add"
		} else {
			if m.cursor >= len(m.snap.Entries) {
				m.cursor = len(m.snap.Entries) - 1
			}
			if m.statusText == "Loading playlist..." {
				m.statusText = "Ready"
				if m.snap.Current >= 0 {
					m.cursor = m.snap.Current
				}
			}
		}
		return m, nil

	case SnapshotErrorMsg:
		return m.showError(msg.Err.Error(), false)

	case EventMsg:
		cmd := m.handleEvent(msg.Event)
		return m, tea.Batch(cmd, waitEventCmd(m.events))

	case EventsClosedMsg:
		m.closed = true
		return m, nil

	case CommandErrorMsg:
		return m.showError(session.Describe(msg.Err), true)

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}
	return m, nil
}

func (m Model) showError(text string, transient bool) (tea.Model, tea.Cmd) {
	m.errorMessage = text
	m.errorTransient = transient
	if transient {
		return m, clearTransientErrorCmd()
	}
	return m, nil
}

// handleEvent folds an event into the cached snapshot. Structural changes
// trigger a full refresh.
func (m *Model) handleEvent(evt events.Event) tea.Cmd {
	pb := &m.snap.Playback
	switch evt.Kind {
	case events.VideoLoaded:
		pb.Loaded = true
		pb.Resource = evt.Resource
		pb.DurationMs = evt.DurationMs
		pb.PositionMs = 0
		pb.ActiveSegment = -1
		pb.State = player.Stopped
		return snapshotCmd(m.ctrl)

	case events.SegmentsAttached:
		pb.SegmentCount = evt.Segments
		pb.ActiveSegment = -1

	case events.PlaybackStarted:
		pb.State = player.Playing
		m.statusText = "Playing"

	case events.PlaybackPaused:
		pb.State = player.Paused
		m.statusText = "Paused"

	case events.PlaybackStopped:
		pb.State = player.Stopped
		pb.PositionMs = 0
		pb.ActiveSegment = -1
		m.statusText = "Stopped"

	case events.PositionChanged:
		pb.PositionMs = evt.PositionMs
		pb.DurationMs = evt.DurationMs
		pb.ActiveSegment = evt.Segment

	case events.VolumeChanged:
		if evt.Target == "narration" {
			pb.NarrationVolume = evt.Volume
		} else {
			pb.VideoVolume = evt.Volume
		}

	case events.NarrationToggled:
		pb.NarrationEnabled = evt.Enabled
		pb.ActiveSegment = -1

	case events.GenerationStarted:
		m.snap.Preparing = evt.Entry
		m.snap.Progress = 0
		m.statusText = "Generating narration for " + evt.Entry

	case events.GenerationProgress:
		m.snap.Progress = evt.Percent

	case events.GenerationComplete:
		m.snap.Preparing = ""
		m.snap.Progress = 100
		m.statusText = "Narration ready for " + evt.Entry
		return snapshotCmd(m.ctrl)

	case events.GenerationError:
		m.snap.Preparing = ""
		m.errorMessage = "Narration unavailable: " + session.Describe(evt.Err)
		if evt.Err == nil {
			m.errorMessage = "Narration unavailable: " + evt.Message
		}
		m.errorTransient = true
		return clearTransientErrorCmd()

	case events.PlaylistChanged:
		return snapshotCmd(m.ctrl)

	case events.Error:
		m.errorMessage = evt.Message
		if evt.Err != nil {
			m.errorMessage += ": " + evt.Err.Error()
		}
		m.errorTransient = true
		return clearTransientErrorCmd()
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.ctrl
	key := msg.String()
	if len(key) == 1 && strings.Contains(seekDigits, key) {
		if !m.snap.Playback.Loaded {
			return m, nil
		}
		fraction := float64(key[0]-'0') / 10
		return m, actionCmd(func(ctx context.Context) error {
			return ctrl.Seek(ctx, fraction)
		})
	}
	switch key {
	case KeyQuit, KeyCtrlC:
		return m, tea.Quit

	case KeyTogglePlay:
		if !m.snap.Playback.Loaded {
			if len(m.snap.Entries) == 0 {
				return m, nil
			}
			return m, actionCmd(ctrl.PlayCurrent)
		}
		return m, actionCmd(ctrl.TogglePlayback)

	case KeyStop:
		return m, actionCmd(ctrl.Stop)

	case KeySeekBack:
		return m, actionCmd(func(ctx context.Context) error {
			return ctrl.SeekBy(ctx, -seekStep*time.Second)
		})

	case KeySeekForward:
		return m, actionCmd(func(ctx context.Context) error {
			return ctrl.SeekBy(ctx, seekStep*time.Second)
		})

	case KeyVolumeUp, KeyVolumeUpAlt:
		return m, actionCmd(func(ctx context.Context) error {
			return ctrl.AdjustVolume(ctx, volumeStep)
		})

	case KeyVolumeDown:
		return m, actionCmd(func(ctx context.Context) error {
			return ctrl.AdjustVolume(ctx, -volumeStep)
		})

	case KeyNarration:
		return m, actionCmd(ctrl.ToggleNarration)

	case KeyPrevious:
		return m, actionCmd(ctrl.Previous)

	case KeyNext:
		return m, actionCmd(ctrl.Next)

	case KeyPlaySelected:
		if m.cursor >= len(m.snap.Entries) {
			return m, nil
		}
		i := m.cursor
		return m, actionCmd(func(ctx context.Context) error {
			return ctrl.Select(ctx, i)
		})

	case KeyCursorUp, KeyCursorUpAlt:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case KeyCursorDown, KeyCursorDownAlt:
		if m.cursor < len(m.snap.Entries)-1 {
			m.cursor++
		}
		return m, nil
	}
	return m, nil
}
