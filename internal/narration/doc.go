// Package narration turns a subtitle track into per-cue narration clips.
//
// Workflow.Generate walks the cues in order, computes a speaking-rate
// adjustment from each cue's text length and duration, and asks the
// synthesis service for one clip per cue named segment_<n>.mp3. A clip that
// already exists is reused without synthesis, so reruns over the same
// directory are cheap and produce identical segments.
//
// Only one run per entry key (and per output directory, across processes) may
// be active at a time; a concurrent request is reported as skipped rather than
// failed.
package narration
