// Package logs reads the player's log file for the `narrator logs` command.
//
// Last returns the trailing lines of a file and the offset just past them.
// Follow continues from that offset, polling for appended lines and starting
// over when the file shrinks, which happens when a new player run swaps the
// narrator.log pointer to a fresh per-run file.
package logs
