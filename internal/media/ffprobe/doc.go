// Package ffprobe reads media durations through ffprobe's JSON output.
// Prober backs the narration workflow's clip-length probe.
package ffprobe
