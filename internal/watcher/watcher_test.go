package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"docsort/internal/fileutil"
	"docsort/internal/logging"
)

func newTestWatcher(t *testing.T, dir string, capacity int) *Watcher {
	t.Helper()
	return New(Options{
		SourceDir:           dir,
		PollInterval:        time.Hour, // scans driven manually
		RequiredStableTicks: 2,
		QueueCapacity:       capacity,
	}, logging.NewNop())
}

func drain(w *Watcher) []string {
	var out []string
	for {
		select {
		case p := <-w.Paths():
			out = append(out, p)
		default:
			return out
		}
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestEmitsOnceAfterRequiredStableTicks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	writeFile(t, path, "content")

	w := newTestWatcher(t, dir, 8)

	w.scanOnce() // records the file
	w.scanOnce() // stable tick 1
	if got := drain(w); len(got) != 0 {
		t.Fatalf("emitted too early: %v", got)
	}
	w.scanOnce() // stable tick 2 -> emit
	got := drain(w)
	if len(got) != 1 || got[0] != fileutil.NormalizePath(path) {
		t.Fatalf("expected one emission, got %v", got)
	}

	w.scanOnce()
	w.scanOnce()
	if got := drain(w); len(got) != 0 {
		t.Fatalf("re-emitted an unchanged file: %v", got)
	}
}

func TestChangingFileNeverEmitted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grow.pdf")

	w := newTestWatcher(t, dir, 8)
	body := "x"
	for i := 0; i < 6; i++ {
		writeFile(t, path, body)
		body += "x"
		w.scanOnce()
	}
	if got := drain(w); len(got) != 0 {
		t.Fatalf("growing file emitted: %v", got)
	}
}

func TestChangeResetsDebounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	writeFile(t, path, "v1")

	w := newTestWatcher(t, dir, 8)
	w.scanOnce()
	w.scanOnce()

	writeFile(t, path, "v2-longer")
	w.scanOnce() // change observed, ticks reset
	w.scanOnce() // tick 1
	if got := drain(w); len(got) != 0 {
		t.Fatalf("emitted before re-stabilizing: %v", got)
	}
	w.scanOnce() // tick 2 -> emit
	if got := drain(w); len(got) != 1 {
		t.Fatalf("expected emission after re-stabilizing, got %v", got)
	}
}

func TestQuarantineAndNonPDFIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "quarantine", "dup.pdf"), "dup")
	writeFile(t, filepath.Join(dir, "quarantine", "nested", "deep.pdf"), "deep")
	writeFile(t, filepath.Join(dir, "notes.txt"), "text")
	writeFile(t, filepath.Join(dir, "sub", "REAL.PDF"), "real")

	w := newTestWatcher(t, dir, 8)
	for i := 0; i < 4; i++ {
		w.scanOnce()
	}
	got := drain(w)
	if len(got) != 1 {
		t.Fatalf("expected only the real pdf, got %v", got)
	}
	if got[0] != fileutil.NormalizePath(filepath.Join(dir, "sub", "REAL.PDF")) {
		t.Fatalf("unexpected path: %s", got[0])
	}
}

func TestFullQueueRetriesNextTick(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), "a")
	writeFile(t, filepath.Join(dir, "b.pdf"), "bb")

	w := newTestWatcher(t, dir, 1)
	w.scanOnce()
	w.scanOnce()
	w.scanOnce() // both due; only one fits the queue

	first := drain(w)
	if len(first) != 1 {
		t.Fatalf("expected exactly one buffered path, got %v", first)
	}

	w.scanOnce() // the unemitted file retries
	second := drain(w)
	if len(second) != 1 {
		t.Fatalf("expected retry emission, got %v", second)
	}
	if first[0] == second[0] {
		t.Fatalf("same path emitted twice: %s", first[0])
	}
}

func TestVanishedFileDropped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	writeFile(t, path, "a")

	w := newTestWatcher(t, dir, 8)
	w.scanOnce()
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	w.scanOnce()
	if _, tracked := w.seen[fileutil.NormalizePath(path)]; tracked {
		t.Fatal("vanished file still tracked")
	}

	// Re-created content restarts the debounce from zero.
	writeFile(t, path, "a")
	w.scanOnce()
	w.scanOnce()
	if got := drain(w); len(got) != 0 {
		t.Fatalf("re-created file emitted without full debounce: %v", got)
	}
}

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	w := New(Options{SourceDir: dir, PollInterval: 5 * time.Millisecond, RequiredStableTicks: 2, QueueCapacity: 4}, logging.NewNop())

	ctx := t.Context()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}

	writeFile(t, filepath.Join(dir, "a.pdf"), "stable")
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-w.Paths():
			w.Stop()
			return
		case <-deadline:
			t.Fatal("timed out waiting for emission")
		}
	}
}
