// Package main hosts the docsort CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API: row listing, manual identity resolution,
// check-mark handling, deposits, journal history, settings updates, and
// configuration scaffolding. It centralizes configuration resolution and
// daemon address discovery so subcommands can focus on user experience.
package main
