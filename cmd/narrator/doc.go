// Package main hosts the narrator CLI entrypoint and command graph.
//
// The interactive player lives behind `narrator play`; every other command
// works on the same playlist file and narration job ledger without opening
// a video window, so playlists can be scripted and narration generated
// ahead of time. Commands that change the playlist refuse to run while a
// player holds the instance lock.
package main
