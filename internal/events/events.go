// Package events carries playback and narration notifications from the
// engine and session to any number of presentation subscribers.
package events

import (
	"sync"
	"time"
)

// Kind names an event type.
type Kind string

const (
	VideoLoaded        Kind = "video_loaded"
	SegmentsAttached   Kind = "segments_attached"
	PlaybackStarted    Kind = "playback_started"
	PlaybackPaused     Kind = "playback_paused"
	PlaybackStopped    Kind = "playback_stopped"
	PositionChanged    Kind = "position_changed"
	VolumeChanged      Kind = "volume_changed"
	NarrationToggled   Kind = "narration_toggled"
	GenerationStarted  Kind = "generation_started"
	GenerationProgress Kind = "generation_progress"
	GenerationComplete Kind = "generation_complete"
	GenerationError    Kind = "generation_error"
	PlaylistChanged    Kind = "playlist_changed"
	Error              Kind = "error"
)

// Event is one notification. Only the payload fields relevant to Kind are set.
type Event struct {
	Seq  uint64
	Time time.Time
	Kind Kind

	Resource   string
	PositionMs int64
	DurationMs int64
	Segment    int
	Volume     int
	// Target is "video" or "narration" for VolumeChanged.
	Target   string
	Enabled  bool
	Percent  int
	Segments int
	Entry    string
	Message  string
	Err      error
}

// Publisher is the sending half of a Bus.
type Publisher interface {
	Publish(Event)
}

// Bus fans events out to subscribers without ever blocking the publisher.
// A subscriber whose buffer is full misses events; the drop is counted.
type Bus struct {
	mu       sync.Mutex
	nextSeq  uint64
	nextID   int
	subs     map[int]chan Event
	recent   []Event
	capacity int
	dropped  uint64
}

// NewBus constructs a bus remembering the last capacity events.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 256
	}
	return &Bus{subs: make(map[int]chan Event), capacity: capacity}
}

// Subscribe registers a subscriber with the given channel buffer. The
// returned cancel func unregisters it and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish stamps evt with a sequence number and time and delivers it.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSeq++
	evt.Seq = b.nextSeq
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	if len(b.recent) == b.capacity {
		copy(b.recent, b.recent[1:])
		b.recent = b.recent[:b.capacity-1]
	}
	b.recent = append(b.recent, evt)
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.dropped++
		}
	}
}

// Recent returns up to limit of the most recent events, oldest first.
func (b *Bus) Recent(limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > len(b.recent) {
		limit = len(b.recent)
	}
	return append([]Event(nil), b.recent[len(b.recent)-limit:]...)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(Event) {}
