// Package services holds the error classification and context scoping shared
// by the narration workflow, the playback session and the tool wrappers.
//
// Wrap produces a *Failure tagged with one of the Err* markers; the marker
// decides the operator hint and, for generation, the failed job message.
// Scope values ride on context.Context so logging.WithContext can stamp the
// entry key, stage and run id onto every line.
package services
