// Package subtitles reads SRT and WebVTT files into ordered cue records.
//
// Only timing and text survive parsing: cue numbers, WebVTT settings, and
// inline markup are discarded and multi-line cue text is joined with single
// spaces. Cues keep file order; the narration workflow relies on a cue's
// position to name its audio clip.
package subtitles
