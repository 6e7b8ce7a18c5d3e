package docs

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Ledger is the single-writer collection of document rows for one session.
// It is created at session start and torn down at session end; persistence
// of processed history happens externally (see internal/journal).
type Ledger struct {
	rows    []*Row
	nextSeq int64
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Len returns the number of rows.
func (l *Ledger) Len() int {
	return len(l.rows)
}

// AddDocument appends a row for a freshly identified document and runs
// collision enforcement for its display name. The returned row is owned by
// the ledger; callers must not retain it across mutations.
func (l *Ledger) AddDocument(displayName string, docType DocumentType, sourcePath, fingerprint string) *Row {
	display := strings.TrimSpace(displayName)
	if display == "" {
		display = SentinelName
	}

	fileName := display
	if sourcePath != "" {
		base := filepath.Base(sourcePath)
		fileName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	row := &Row{
		ID:          uuid.NewString(),
		FileName:    fileName,
		DisplayName: display,
		Type:        docType,
		SourcePath:  sourcePath,
		Fingerprint: fingerprint,
		OriginSeq:   l.nextSeq,
	}
	l.nextSeq++

	if row.identityKnown() {
		row.Status = StatusReady
	} else {
		row.Status = StatusReview
	}
	row.refreshCheckbox()

	l.rows = append(l.rows, row)
	l.EnforceNameGroup(CanonicalName(display))
	return row
}

// FindByID returns the row with the given id, or nil.
func (l *Ledger) FindByID(id string) *Row {
	for _, row := range l.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

// ResolveManual applies operator-supplied identity to an existing row:
// display name, type, and optionally a corrected source path. The old and
// new collision groups are both re-evaluated. A row promoted from Review to
// Ready is given a fresh origin sequence so it surfaces at the top of the
// default ordering. Returns false when the row does not exist.
func (l *Ledger) ResolveManual(rowID, docNumber string, docType DocumentType, newSourcePath string) bool {
	row := l.FindByID(rowID)
	if row == nil {
		return false
	}

	prevStatus := row.Status
	oldCanon := CanonicalName(row.DisplayName)

	display := strings.TrimSpace(docNumber)
	if display == "" {
		display = SentinelName
	}
	row.DisplayName = display
	row.FileName = display
	row.Type = docType
	if row.identityKnown() {
		row.Status = StatusReady
	} else {
		row.Status = StatusReview
	}
	if prevStatus == StatusReview && row.Status == StatusReady {
		row.OriginSeq = l.nextSeq
		l.nextSeq++
	}
	if newSourcePath != "" {
		row.SourcePath = newSourcePath
	}
	row.refreshCheckbox()

	newCanon := CanonicalName(display)
	if oldCanon != "" && oldCanon != SentinelName {
		l.EnforceNameGroup(oldCanon)
	}
	if newCanon != "" && newCanon != SentinelName {
		l.EnforceNameGroup(newCanon)
	}
	return true
}

// ToggleChecked sets the check mark on an eligible row. Ineligible rows are
// left untouched. Returns false when the row does not exist.
func (l *Ledger) ToggleChecked(rowID string, checked bool) bool {
	row := l.FindByID(rowID)
	if row == nil {
		return false
	}
	if row.CheckboxEnabled {
		row.Checked = checked
	}
	return true
}

// ToggleAllEligible sets the check mark on every eligible row; the header
// checkbox semantics.
func (l *Ledger) ToggleAllEligible(checked bool) int {
	changed := 0
	for _, row := range l.rows {
		if row.CheckboxEnabled {
			row.Checked = checked
			changed++
		}
	}
	return changed
}

// Deposit marks every Ready row Processed and returns how many changed.
// Pure state transition: no filesystem activity.
func (l *Ledger) Deposit() []*Row {
	var changed []*Row
	for _, row := range l.rows {
		if row.Status != StatusReady {
			continue
		}
		row.Status = StatusProcessed
		row.refreshCheckbox()
		changed = append(changed, row)
	}
	return changed
}

// RemoveMissing drops non-Processed rows whose source file no longer exists
// according to the supplied predicate, re-evaluates the affected collision
// groups, and returns the removed rows so the caller can release their
// fingerprints.
func (l *Ledger) RemoveMissing(exists func(path string) bool) []*Row {
	var removed []*Row
	canons := map[string]struct{}{}

	kept := l.rows[:0]
	for _, row := range l.rows {
		if row.Status != StatusProcessed && row.SourcePath != "" && !exists(row.SourcePath) {
			removed = append(removed, row)
			if canon := CanonicalName(row.DisplayName); canon != "" && canon != SentinelName {
				canons[canon] = struct{}{}
			}
			continue
		}
		kept = append(kept, row)
	}
	l.rows = kept

	for canon := range canons {
		l.EnforceNameGroup(canon)
	}
	return removed
}

// Snapshot returns copies of rows matching the filters, Review rows first,
// then by reverse insertion order. Empty filter values match everything.
func (l *Ledger) Snapshot(status Status, docType DocumentType) []Row {
	out := make([]Row, 0, len(l.rows))
	for _, row := range l.rows {
		if status != "" && row.Status != status {
			continue
		}
		if docType != "" && row.Type != docType {
			continue
		}
		out = append(out, *row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := statusRank(out[i].Status), statusRank(out[j].Status)
		if ri != rj {
			return ri < rj
		}
		return out[i].OriginSeq > out[j].OriginSeq
	})
	return out
}

func statusRank(s Status) int {
	if s == StatusReview {
		return 0
	}
	return 1
}

// Counts reports row totals by status.
func (l *Ledger) Counts() (ready, review, processed int) {
	for _, row := range l.rows {
		switch row.Status {
		case StatusReady:
			ready++
		case StatusReview:
			review++
		case StatusProcessed:
			processed++
		}
	}
	return
}
