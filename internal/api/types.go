package api

import (
	"time"

	"docsort/internal/docs"
	"docsort/internal/journal"
	"docsort/internal/pipeline"
	"docsort/internal/preflight"
)

// RowView is the wire form of a ledger row.
type RowView struct {
	ID              string `json:"id"`
	FileName        string `json:"file_name"`
	DisplayName     string `json:"display_name"`
	Type            string `json:"type"`
	TypeCode        string `json:"type_code"`
	Status          string `json:"status"`
	Checked         bool   `json:"checked"`
	CheckboxEnabled bool   `json:"checkbox_enabled"`
	SourcePath      string `json:"source_path"`
	Fingerprint     string `json:"fingerprint,omitempty"`
}

// RowListResponse wraps the rows listing.
type RowListResponse struct {
	Rows []RowView `json:"rows"`
}

// BatchView reports progress of the in-flight batch.
type BatchView struct {
	ID    int64 `json:"id"`
	Done  int   `json:"done"`
	Total int   `json:"total"`
}

// PreflightView is the wire form of one startup check.
type PreflightView struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse is the daemon status payload.
type StatusResponse struct {
	Running       bool            `json:"running"`
	PID           int             `json:"pid"`
	Ready         int             `json:"ready"`
	Review        int             `json:"review"`
	Processed     int             `json:"processed"`
	Pending       int             `json:"pending"`
	Batch         *BatchView      `json:"batch,omitempty"`
	Preflight     []PreflightView `json:"preflight,omitempty"`
	JournalDBPath string          `json:"journal_db_path,omitempty"`
	LockFilePath  string          `json:"lock_file_path,omitempty"`
}

// ResolveRequest supplies operator-provided identity for a row.
type ResolveRequest struct {
	DocNumber  string `json:"doc_number"`
	Type       string `json:"type"`
	SourcePath string `json:"source_path,omitempty"`
}

// CheckRequest toggles one row's check mark.
type CheckRequest struct {
	Checked bool `json:"checked"`
}

// CheckAllResponse reports how many rows the header toggle changed.
type CheckAllResponse struct {
	Changed int `json:"changed"`
}

// DepositResponse reports how many rows were deposited.
type DepositResponse struct {
	Deposited int `json:"deposited"`
}

// HistoryEntry is the wire form of a journal entry.
type HistoryEntry struct {
	ID          string    `json:"id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Event       string    `json:"event"`
	BatchID     int64     `json:"batch_id,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	DocNumber   string    `json:"doc_number,omitempty"`
	DocType     string    `json:"doc_type,omitempty"`
	SourcePath  string    `json:"source_path,omitempty"`
	RenamedPath string    `json:"renamed_path,omitempty"`
}

// HistoryResponse wraps the journal listing.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// SettingsPayload mirrors the settings document on the wire.
type SettingsPayload struct {
	SourceFolder string `json:"source_folder"`
	DestFolder   string `json:"dest_folder"`
	ExportFolder string `json:"export_folder"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromRow converts a ledger row to its wire form.
func FromRow(row docs.Row) RowView {
	return RowView{
		ID:              row.ID,
		FileName:        row.FileName,
		DisplayName:     row.DisplayName,
		Type:            string(row.Type),
		TypeCode:        row.Type.ShortCode(),
		Status:          string(row.Status),
		Checked:         row.Checked,
		CheckboxEnabled: row.CheckboxEnabled,
		SourcePath:      row.SourcePath,
		Fingerprint:     row.Fingerprint,
	}
}

// FromRows converts a slice of ledger rows.
func FromRows(rows []docs.Row) []RowView {
	out := make([]RowView, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromRow(row))
	}
	return out
}

// FromEntry converts a journal entry to its wire form.
func FromEntry(e journal.Entry) HistoryEntry {
	return HistoryEntry{
		ID:          e.ID,
		OccurredAt:  e.OccurredAt,
		Event:       e.Event,
		BatchID:     e.BatchID,
		Fingerprint: e.Fingerprint,
		DocNumber:   e.DocNumber,
		DocType:     e.DocType,
		SourcePath:  e.SourcePath,
		RenamedPath: e.RenamedPath,
	}
}

// FromEntries converts a slice of journal entries.
func FromEntries(entries []journal.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromEntry(e))
	}
	return out
}

// FromPreflight converts startup check results to their wire form.
func FromPreflight(results []preflight.Result) []PreflightView {
	out := make([]PreflightView, 0, len(results))
	for _, res := range results {
		out = append(out, PreflightView{Name: res.Name, Passed: res.Passed, Detail: res.Detail})
	}
	return out
}

// FromStatus builds the status payload from a pipeline snapshot.
func FromStatus(snap pipeline.StatusSnapshot) StatusResponse {
	resp := StatusResponse{
		Ready:     snap.Ready,
		Review:    snap.Review,
		Processed: snap.Processed,
		Pending:   snap.PendingCount,
	}
	if snap.BatchActive {
		resp.Batch = &BatchView{
			ID:    snap.BatchID,
			Done:  snap.BatchDone,
			Total: snap.BatchTotal,
		}
	}
	return resp
}
