// Package deps reports whether the external binaries narrator shells out to
// (mpv, edge-tts, ffprobe) are installed.
package deps
