package docs_test

import (
	"testing"

	"docsort/internal/docs"
)

func TestAddDocumentReady(t *testing.T) {
	ledger := docs.NewLedger()
	row := ledger.AddDocument("INV-1", docs.TypeTaxInvoice, "/in/INV-1.pdf", "fp-1")

	if row.Status != docs.StatusReady {
		t.Fatalf("status = %s, want Ready", row.Status)
	}
	if !row.CheckboxEnabled {
		t.Fatal("tax invoice Ready row should be checkbox-eligible")
	}
	if row.FileName != "INV-1" {
		t.Fatalf("file name = %q", row.FileName)
	}
}

func TestAddDocumentSentinelAlwaysReview(t *testing.T) {
	ledger := docs.NewLedger()
	row := ledger.AddDocument("!", docs.TypeUnknown, "/in/!__abc.pdf", "fp-2")
	if row.Status != docs.StatusReview {
		t.Fatalf("sentinel row status = %s, want Review", row.Status)
	}
	if row.CheckboxEnabled {
		t.Fatal("sentinel row must not be checkbox-eligible")
	}

	// A second sentinel row must not trigger collision grouping.
	second := ledger.AddDocument("!", docs.TypeUnknown, "/in/!__def.pdf", "fp-3")
	if second.Status != docs.StatusReview {
		t.Fatalf("second sentinel status = %s", second.Status)
	}
}

func TestAddDocumentUnknownTypeReview(t *testing.T) {
	ledger := docs.NewLedger()
	row := ledger.AddDocument("INV-9", docs.TypeUnknown, "/in/INV-9.pdf", "fp")
	if row.Status != docs.StatusReview {
		t.Fatalf("unknown type should be Review, got %s", row.Status)
	}
}

func TestCheckboxEligibilityByType(t *testing.T) {
	ledger := docs.NewLedger()
	cases := []struct {
		docType  docs.DocumentType
		eligible bool
	}{
		{docs.TypeTaxInvoice, true},
		{docs.TypeProforma, true},
		{docs.TypeOrder, false},
		{docs.TypeTransfer, false},
		{docs.TypeCredit, false},
	}
	for i, tc := range cases {
		row := ledger.AddDocument(stringN("DOC", i), tc.docType, "/in/x.pdf", "")
		if row.CheckboxEnabled != tc.eligible {
			t.Errorf("%s: eligible = %v, want %v", tc.docType, row.CheckboxEnabled, tc.eligible)
		}
	}
}

func stringN(prefix string, n int) string {
	return prefix + "-" + string(rune('A'+n))
}

func TestResolveManualPromotesAndBumpsOrder(t *testing.T) {
	ledger := docs.NewLedger()
	first := ledger.AddDocument("!", docs.TypeUnknown, "/in/a.pdf", "fp-a")
	second := ledger.AddDocument("INV-2", docs.TypeOrder, "/in/b.pdf", "fp-b")

	if !ledger.ResolveManual(first.ID, "INV-7", docs.TypeProforma, "/in/INV-7.pdf") {
		t.Fatal("ResolveManual returned false")
	}

	resolved := ledger.FindByID(first.ID)
	if resolved.Status != docs.StatusReady {
		t.Fatalf("resolved status = %s", resolved.Status)
	}
	if resolved.SourcePath != "/in/INV-7.pdf" {
		t.Fatalf("source path = %s", resolved.SourcePath)
	}
	if resolved.OriginSeq <= second.OriginSeq {
		t.Fatal("Review->Ready promotion should assign a fresh origin sequence")
	}

	rows := ledger.Snapshot("", "")
	if rows[0].ID != resolved.ID {
		t.Fatalf("promoted row should lead the default ordering, got %s", rows[0].DisplayName)
	}
}

func TestResolveManualMissingRow(t *testing.T) {
	ledger := docs.NewLedger()
	if ledger.ResolveManual("nope", "X", docs.TypeOrder, "") {
		t.Fatal("expected false for unknown row id")
	}
}

func TestToggleCheckedRespectsEligibility(t *testing.T) {
	ledger := docs.NewLedger()
	order := ledger.AddDocument("ORD-1", docs.TypeOrder, "/in/o.pdf", "")
	invoice := ledger.AddDocument("INV-1", docs.TypeTaxInvoice, "/in/i.pdf", "")

	ledger.ToggleChecked(order.ID, true)
	if ledger.FindByID(order.ID).Checked {
		t.Fatal("ineligible row must not become checked")
	}
	ledger.ToggleChecked(invoice.ID, true)
	if !ledger.FindByID(invoice.ID).Checked {
		t.Fatal("eligible row should be checked")
	}
}

func TestToggleAllEligible(t *testing.T) {
	ledger := docs.NewLedger()
	ledger.AddDocument("INV-1", docs.TypeTaxInvoice, "/in/a.pdf", "")
	ledger.AddDocument("PF-1", docs.TypeProforma, "/in/b.pdf", "")
	ledger.AddDocument("ORD-1", docs.TypeOrder, "/in/c.pdf", "")

	if changed := ledger.ToggleAllEligible(true); changed != 2 {
		t.Fatalf("changed = %d, want 2", changed)
	}
	for _, row := range ledger.Snapshot("", "") {
		if row.CheckboxEnabled && !row.Checked {
			t.Fatalf("eligible row %s not checked", row.DisplayName)
		}
		if !row.CheckboxEnabled && row.Checked {
			t.Fatalf("ineligible row %s checked", row.DisplayName)
		}
	}
}

func TestDepositMarksReadyProcessed(t *testing.T) {
	ledger := docs.NewLedger()
	inv := ledger.AddDocument("INV-1", docs.TypeTaxInvoice, "/in/a.pdf", "")
	ledger.AddDocument("!", docs.TypeUnknown, "/in/b.pdf", "")
	ledger.ToggleChecked(inv.ID, true)

	changed := ledger.Deposit()
	if len(changed) != 1 {
		t.Fatalf("deposited = %d, want 1", len(changed))
	}
	row := ledger.FindByID(inv.ID)
	if row.Status != docs.StatusProcessed {
		t.Fatalf("status = %s", row.Status)
	}
	// Processed tax invoices keep their checkbox and check mark.
	if !row.CheckboxEnabled || !row.Checked {
		t.Fatal("processed eligible row should keep checkbox state")
	}
}

func TestSnapshotFilterAndOrder(t *testing.T) {
	ledger := docs.NewLedger()
	ledger.AddDocument("INV-1", docs.TypeTaxInvoice, "/in/a.pdf", "")
	ledger.AddDocument("ORD-1", docs.TypeOrder, "/in/b.pdf", "")
	ledger.AddDocument("!", docs.TypeUnknown, "/in/c.pdf", "")
	ledger.AddDocument("PF-1", docs.TypeProforma, "/in/d.pdf", "")

	rows := ledger.Snapshot("", "")
	if len(rows) != 4 {
		t.Fatalf("len = %d", len(rows))
	}
	// Review first, then reverse insertion order.
	if rows[0].DisplayName != "!" {
		t.Fatalf("first row = %s, want the Review row", rows[0].DisplayName)
	}
	if rows[1].DisplayName != "PF-1" || rows[2].DisplayName != "ORD-1" || rows[3].DisplayName != "INV-1" {
		t.Fatalf("unexpected ordering: %s %s %s", rows[1].DisplayName, rows[2].DisplayName, rows[3].DisplayName)
	}

	reviews := ledger.Snapshot(docs.StatusReview, "")
	if len(reviews) != 1 || reviews[0].DisplayName != "!" {
		t.Fatalf("status filter failed: %+v", reviews)
	}
	orders := ledger.Snapshot("", docs.TypeOrder)
	if len(orders) != 1 || orders[0].DisplayName != "ORD-1" {
		t.Fatalf("type filter failed: %+v", orders)
	}
}

func TestRemoveMissing(t *testing.T) {
	ledger := docs.NewLedger()
	a := ledger.AddDocument("INV-1", docs.TypeTaxInvoice, "/in/a.pdf", "fp-a")
	b := ledger.AddDocument("INV-1", docs.TypeTaxInvoice, "/in/b.pdf", "fp-b")
	if ledger.FindByID(a.ID).Status != docs.StatusReview {
		t.Fatal("collision pair should be Review")
	}

	removed := ledger.RemoveMissing(func(path string) bool { return path != "/in/b.pdf" })
	if len(removed) != 1 || removed[0].ID != b.ID {
		t.Fatalf("removed = %+v", removed)
	}
	if got := ledger.FindByID(a.ID).Status; got != docs.StatusReady {
		t.Fatalf("survivor status = %s, want Ready after group shrinks", got)
	}
}

func TestRemoveMissingKeepsProcessed(t *testing.T) {
	ledger := docs.NewLedger()
	row := ledger.AddDocument("INV-1", docs.TypeTaxInvoice, "/in/a.pdf", "fp")
	ledger.Deposit()

	removed := ledger.RemoveMissing(func(string) bool { return false })
	if len(removed) != 0 {
		t.Fatalf("processed rows must survive reconciliation, removed %d", len(removed))
	}
	if ledger.FindByID(row.ID) == nil {
		t.Fatal("processed row vanished")
	}
}

func TestParseHelpers(t *testing.T) {
	if st, ok := docs.ParseStatus(" ready "); !ok || st != docs.StatusReady {
		t.Fatalf("ParseStatus = %v %v", st, ok)
	}
	if _, ok := docs.ParseStatus("done"); ok {
		t.Fatal("unknown status accepted")
	}
	if dt, ok := docs.ParseDocumentType("tax invoice"); !ok || dt != docs.TypeTaxInvoice {
		t.Fatalf("ParseDocumentType = %v %v", dt, ok)
	}
	if docs.TypeProforma.ShortCode() != "Pf" {
		t.Fatal("short code mismatch")
	}
}
