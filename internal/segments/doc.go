// Package segments holds the narration segment index used by the player.
//
// A Segment binds one synthesized narration clip to the half-open interval
// [StartMs, EndMs) of the video timeline. Build validates an ordered slice of
// segments (sorted by start, non-overlapping, non-empty intervals) and returns
// an immutable Index whose FindActive lookup is a binary search.
//
// Invalid input is rejected instead of repaired: overlapping or unsorted
// segments mean the generation step produced bad timings upstream.
package segments
