// Package journal persists an append-only audit trail of ingest outcomes and
// deposits in SQLite. The pipeline is the only writer; the CLI reads history
// through the daemon API.
package journal
