package tui

import (
	"narrator/internal/events"
	"narrator/internal/session"
)

// SnapshotMsg carries a fresh session snapshot.
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// SnapshotErrorMsg is sent when the session could not be read.
type SnapshotErrorMsg struct {
	Err error
}

// EventMsg wraps one event from the playback bus.
type EventMsg struct {
	Event events.Event
}

// EventsClosedMsg is sent when the event subscription ends.
type EventsClosedMsg struct{}

// CommandErrorMsg reports a failed user command.
type CommandErrorMsg struct {
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
