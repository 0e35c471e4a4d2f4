// Package playlist holds the ordered list of videos the player works
// through, the current selection, and its on-disk JSON form.
//
// The file is versioned and decoded strictly: unknown fields, missing
// required fields, an unsupported version, or an out-of-range current index
// all reject the document. Load treats a rejected or missing file as an
// empty playlist and reports the decode error so the caller can log it.
package playlist
