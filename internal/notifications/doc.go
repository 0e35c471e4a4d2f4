// Package notifications delivers narration generation outcomes via ntfy.
//
// The ntfy implementation posts to the topic configured in config.toml and
// degrades to a no-op when no topic is set. The generation and errors
// switches in [notifications] silence each category independently.
package notifications
