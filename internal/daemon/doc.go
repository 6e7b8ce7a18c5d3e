// Package daemon wires the watcher, identity worker, and pipeline together,
// enforces single-instance execution with a lock file, and serves the HTTP
// API the CLI talks to.
package daemon
