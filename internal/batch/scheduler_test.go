package batch_test

import (
	"testing"

	"docsort/internal/batch"
)

func TestFreezeDeterministicOrder(t *testing.T) {
	s := batch.NewScheduler()
	for _, p := range []string{"/in/b.pdf", "/in/A.pdf", "/in/a2.pdf"} {
		if !s.Add(p) {
			t.Fatalf("Add(%s) rejected", p)
		}
	}

	items := s.Freeze()
	want := []string{"/in/A.pdf", "/in/a2.pdf", "/in/b.pdf"}
	if len(items) != len(want) {
		t.Fatalf("items = %d, want %d", len(items), len(want))
	}
	for i, item := range items {
		if item.Path != want[i] {
			t.Fatalf("items[%d] = %s, want %s", i, item.Path, want[i])
		}
		if item.Seq != i {
			t.Fatalf("items[%d].Seq = %d", i, item.Seq)
		}
		if item.BatchID != 1 {
			t.Fatalf("items[%d].BatchID = %d", i, item.BatchID)
		}
	}
}

func TestFreezeBasenameTieBreakByFullPath(t *testing.T) {
	s := batch.NewScheduler()
	s.Add("/in/z/doc.pdf")
	s.Add("/in/a/doc.pdf")

	items := s.Freeze()
	if items[0].Path != "/in/a/doc.pdf" || items[1].Path != "/in/z/doc.pdf" {
		t.Fatalf("tie-break wrong: %s, %s", items[0].Path, items[1].Path)
	}
}

func TestSingleBatchInFlight(t *testing.T) {
	s := batch.NewScheduler()
	s.Add("/in/a.pdf")
	items := s.Freeze()
	if len(items) != 1 {
		t.Fatalf("freeze = %d items", len(items))
	}

	// New arrivals accumulate but do not start a second batch.
	s.Add("/in/b.pdf")
	if got := s.Freeze(); got != nil {
		t.Fatalf("second batch frozen while first active: %v", got)
	}
	if s.PendingCount() != 1 {
		t.Fatalf("pending = %d", s.PendingCount())
	}

	if finished, applied := s.Done(items[0].BatchID, items[0].Path); !finished || !applied {
		t.Fatal("expected batch to finish")
	}
	if _, _, _, ok := s.Active(); ok {
		t.Fatal("batch should be retired at done==total")
	}

	next := s.Freeze()
	if len(next) != 1 || next[0].Path != "/in/b.pdf" {
		t.Fatalf("next batch = %v", next)
	}
	if next[0].BatchID != 2 {
		t.Fatalf("batch id = %d, want 2", next[0].BatchID)
	}
}

func TestDoneIdempotent(t *testing.T) {
	s := batch.NewScheduler()
	s.Add("/in/a.pdf")
	s.Add("/in/b.pdf")
	items := s.Freeze()

	if _, applied := s.Done(items[0].BatchID, items[0].Path); !applied {
		t.Fatal("first done not applied")
	}
	if _, applied := s.Done(items[0].BatchID, items[0].Path); applied {
		t.Fatal("repeated done must be a no-op")
	}

	_, done, total, ok := s.Active()
	if !ok || done != 1 || total != 2 {
		t.Fatalf("active = %d/%d ok=%v", done, total, ok)
	}
}

func TestStaleBatchEventsIgnored(t *testing.T) {
	s := batch.NewScheduler()
	s.Add("/in/a.pdf")
	items := s.Freeze()

	if s.Running(items[0].BatchID+7, items[0].Path) {
		t.Fatal("foreign batch id accepted")
	}
	if _, applied := s.Done(items[0].BatchID, "/in/unknown.pdf"); applied {
		t.Fatal("unknown path accepted")
	}
	if !s.Running(items[0].BatchID, items[0].Path) {
		t.Fatal("legitimate running event rejected")
	}
}

func TestAddDeduplicates(t *testing.T) {
	s := batch.NewScheduler()
	if !s.Add("/in/a.pdf") || s.Add("/in/a.pdf") {
		t.Fatal("pending dedupe failed")
	}
	items := s.Freeze()

	// In-flight path cannot be re-added until its item completes.
	if s.Add("/in/a.pdf") {
		t.Fatal("in-flight path re-added")
	}
	s.Done(items[0].BatchID, items[0].Path)
	if !s.Add("/in/a.pdf") {
		t.Fatal("completed path should be addable again")
	}
}

func TestFreezeEmptyPending(t *testing.T) {
	s := batch.NewScheduler()
	if items := s.Freeze(); items != nil {
		t.Fatalf("freeze with no pending = %v", items)
	}
}
