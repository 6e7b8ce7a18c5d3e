package docs

// EnforceNameGroup recomputes the status of every non-Processed row whose
// canonical display name equals canon. The full ledger is re-scanned rather
// than patching counts incrementally; group membership changes in too many
// ways (add, resolve, removal) for incremental bookkeeping to stay honest.
//
// Rules:
//   - the sentinel name is exempt; sentinel rows are handled at mutation time
//   - two or more members force every member into Review
//   - a lone member is Ready when its identity is fully known, else Review
//
// Checkbox eligibility is refreshed afterwards, so a forced Review always
// suppresses the checkbox and clears any existing check mark.
func (l *Ledger) EnforceNameGroup(canon string) {
	if canon == "" || canon == SentinelName {
		return
	}

	var members []*Row
	for _, row := range l.rows {
		if row.Status == StatusProcessed {
			continue
		}
		if CanonicalName(row.DisplayName) == canon {
			members = append(members, row)
		}
	}

	switch {
	case len(members) >= 2:
		for _, row := range members {
			row.Status = StatusReview
		}
	case len(members) == 1:
		row := members[0]
		if row.identityKnown() {
			row.Status = StatusReady
		} else {
			row.Status = StatusReview
		}
	}

	for _, row := range members {
		row.refreshCheckbox()
	}
}
