// Package session coordinates the playlist, narration generation and the
// player loop.
//
// Playing an entry always prepares its narration first. Preparation runs on
// a background goroutine: it reuses the job ledger's manifest when the entry
// is already narrated, otherwise it parses the subtitle file and runs the
// narration workflow, publishing generation events as it goes. The result
// re-enters the player through the loop's command channel: load the video,
// attach the segment index, play. When preparation fails the video plays
// without narration and the failure is published and recorded.
//
// Selecting another entry cancels any preparation still running for the
// previous one. Session methods are safe for concurrent use.
package session
