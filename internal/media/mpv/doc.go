// Package mpv drives an mpv process over its JSON IPC socket and exposes it
// as a player.Pipeline.
package mpv
