package segments

import (
	"fmt"
	"sort"
)

// RateCached marks a segment whose audio was reused from a previous run.
const RateCached = "cached"

// Segment is one narration clip bound to a cue interval.
type Segment struct {
	AudioPath   string
	StartMs     int64
	EndMs       int64
	Text        string
	RateApplied string
	// ClipMs is the probed clip length; 0 when unknown.
	ClipMs int64
}

// DurationMs returns the length of the segment interval.
func (s Segment) DurationMs() int64 {
	return s.EndMs - s.StartMs
}

// Contains reports whether positionMs falls within [StartMs, EndMs).
func (s Segment) Contains(positionMs int64) bool {
	return positionMs >= s.StartMs && positionMs < s.EndMs
}

// InvalidSegmentsError reports why a segment sequence was rejected.
type InvalidSegmentsError struct {
	Index  int
	Reason string
}

func (e *InvalidSegmentsError) Error() string {
	return fmt.Sprintf("invalid segments: segment %d: %s", e.Index, e.Reason)
}

// Index is an immutable, sorted, non-overlapping set of segments.
type Index struct {
	items []Segment
}

// Build validates segs and returns an Index over a private copy.
func Build(segs []Segment) (*Index, error) {
	items := make([]Segment, len(segs))
	copy(items, segs)
	for i, seg := range items {
		if seg.EndMs <= seg.StartMs {
			return nil, &InvalidSegmentsError{
				Index:  i,
				Reason: fmt.Sprintf("empty interval [%d,%d)", seg.StartMs, seg.EndMs),
			}
		}
		if i == 0 {
			continue
		}
		prev := items[i-1]
		if seg.StartMs < prev.StartMs {
			return nil, &InvalidSegmentsError{
				Index:  i,
				Reason: fmt.Sprintf("starts at %d before previous start %d", seg.StartMs, prev.StartMs),
			}
		}
		if seg.StartMs < prev.EndMs {
			return nil, &InvalidSegmentsError{
				Index:  i,
				Reason: fmt.Sprintf("overlaps previous segment [%d,%d)", prev.StartMs, prev.EndMs),
			}
		}
	}
	return &Index{items: items}, nil
}

// Len returns the number of segments. A nil Index is empty.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.items)
}

// At returns the segment at position i.
func (x *Index) At(i int) Segment {
	return x.items[i]
}

// Segments returns a copy of the indexed segments.
func (x *Index) Segments() []Segment {
	if x == nil {
		return nil
	}
	out := make([]Segment, len(x.items))
	copy(out, x.items)
	return out
}

// FindActive returns the index of the segment containing positionMs.
func (x *Index) FindActive(positionMs int64) (int, bool) {
	if x.Len() == 0 {
		return -1, false
	}
	// First segment starting after the position; the candidate is the one before it.
	i := sort.Search(len(x.items), func(i int) bool {
		return x.items[i].StartMs > positionMs
	})
	if i == 0 {
		return -1, false
	}
	if x.items[i-1].Contains(positionMs) {
		return i - 1, true
	}
	return -1, false
}
