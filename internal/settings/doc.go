// Package settings stores user-tunable folder preferences as a flat JSON
// document, validated against an embedded schema on every load and save.
// Unlike the daemon config, settings are mutable at runtime through the API.
package settings
