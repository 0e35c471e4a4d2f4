package player

// State is the transport state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// PlaybackState is a snapshot of the engine.
type PlaybackState struct {
	State            State
	Loaded           bool
	Resource         string
	PositionMs       int64
	DurationMs       int64
	VideoVolume      int
	NarrationVolume  int
	NarrationEnabled bool
	// ActiveSegment is -1 when no narration segment is active.
	ActiveSegment int
	SegmentCount  int
}

// Playing reports whether the transport is playing.
func (s PlaybackState) Playing() bool {
	return s.State == Playing
}

type secondaryMode int

const (
	secondaryIdle secondaryMode = iota
	secondaryPlaying
	// secondaryHeld has a clip loaded but paused until the transport plays.
	secondaryHeld
)
