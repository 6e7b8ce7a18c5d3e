// Package watcher polls a directory tree for PDF files that have stopped
// changing and reports each exactly once.
//
// A file counts as stable after its (size, mtime) pair has been observed
// unchanged across a configured number of consecutive polls. The reserved
// quarantine subtree is never descended into. Per-scan errors are swallowed
// and retried on the next tick; the loop only exits on cancellation.
package watcher
