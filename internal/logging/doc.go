// Package logging builds the slog loggers used across the daemon and CLI.
//
// It offers a console handler that renders compact single-line records with
// the component name folded into the message prefix, and a JSON handler for
// machine consumption. Attribute helpers and standardized field keys keep
// log output uniform across packages.
package logging
