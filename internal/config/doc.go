// Package config loads, normalizes, and validates narrator configuration.
//
// Configuration is TOML. Load searches the explicit path, then
// ~/.config/narrator/config.toml, then ./narrator.toml, falling back to
// Default when nothing exists. Paths are ~-expanded and made absolute during
// normalization so downstream packages can treat them as final.
package config
