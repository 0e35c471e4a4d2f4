// Package jobstore keeps a SQLite ledger of narration generation jobs.
//
// Each playlist entry has at most one job row keyed by the entry key. A job
// moves pending -> generating -> ready|failed and, once ready, carries the
// manifest of segments the generation produced, so the CLI can report on
// narration without rescanning directories.
//
// The database runs in WAL mode with a busy timeout; writes additionally
// retry on SQLITE_BUSY. Jobs left in generating by a crash are failed at
// startup with ResetStuck.
package jobstore
