// Package config loads, normalizes, and validates docsort configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the daemon and CLI need, so downstream code receives sanitized absolute
// paths and validated intervals in one pass.
package config
