// Package pipeline runs the ingest control loop: it drains watcher
// discoveries into the batch scheduler, dispatches frozen batches to the
// identity worker, applies worker results to the document ledger, and
// journals outcomes. The ledger is owned exclusively by the control loop;
// external reads and mutations hop onto it through a command channel.
package pipeline
