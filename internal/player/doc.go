// Package player implements the narration-synchronized playback engine.
//
// Engine owns two pipelines: the primary plays the video with its own
// sound, the secondary plays narration clips. Tick reads the primary's
// position, resolves the active narration segment, and starts or stops the
// secondary when the segment changes. A newly active clip always starts from
// its own beginning; the secondary never seeks into a clip.
//
// Engine is not safe for concurrent use. Loop owns an Engine on a single
// goroutine, runs Tick on a fixed period while a video is loaded, and
// serializes every other call through Do.
//
// Transport operations never return pipeline errors. Failures are published
// as events.Error and the engine keeps a well-defined state.
package player
