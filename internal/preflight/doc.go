// Package preflight provides readiness checks for the binaries, directories
// and services narrator depends on.
//
// The play command runs RunAll before opening the player and refuses to
// start when a required check fails. The doctor command prints every
// result. Optional checks are gated by their config toggles.
package preflight
