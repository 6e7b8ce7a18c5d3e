package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"docsort/internal/fileutil"
)

func TestIsPDF(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"invoice.pdf", true},
		{"INVOICE.PDF", true},
		{"scan.Pdf", true},
		{"notes.txt", false},
		{"pdf", false},
		{"archive.pdf.gz", false},
	}
	for _, tc := range cases {
		if got := fileutil.IsPDF(tc.path); got != tc.want {
			t.Errorf("IsPDF(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIsUnder(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "sub", "a.pdf")
	outside := filepath.Join(filepath.Dir(root), "elsewhere", "a.pdf")

	if !fileutil.IsUnder(root, root) {
		t.Error("expected root to be under itself")
	}
	if !fileutil.IsUnder(root, inside) {
		t.Errorf("expected %s under %s", inside, root)
	}
	if fileutil.IsUnder(root, outside) {
		t.Errorf("did not expect %s under %s", outside, root)
	}
	// Prefix of the directory name alone must not count.
	if fileutil.IsUnder(root, root+"x") {
		t.Error("sibling with shared prefix reported as under root")
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pdf")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	const want = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got, err := fileutil.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if got != want {
		t.Fatalf("HashFile = %s, want %s", got, want)
	}
	if !fileutil.IsHexDigest(got) {
		t.Fatal("digest not recognized as well-formed")
	}
}

func TestHashFileMissing(t *testing.T) {
	if _, err := fileutil.HashFile(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestIsHexDigest(t *testing.T) {
	if fileutil.IsHexDigest("abc") {
		t.Error("short value accepted")
	}
	if fileutil.IsHexDigest("zz24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824") {
		t.Error("non-hex value accepted")
	}
}

func TestSanitizeStem(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"INV-2024/001", "INV-2024_001"},
		{`a<b>c:d"e`, "a_b_c_d_e"},
		{"  trimmed  ", "trimmed"},
		{"dots...", "dots"},
		{`\\|?*`, "_____"},
	}
	for _, tc := range cases {
		if got := fileutil.SanitizeStem(tc.in); got != tc.want {
			t.Errorf("SanitizeStem(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	first := fileutil.UniquePath(dir, "INV-1", ".pdf")
	if first != filepath.Join(dir, "INV-1.pdf") {
		t.Fatalf("unexpected first candidate: %s", first)
	}

	if err := os.WriteFile(first, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := fileutil.UniquePath(dir, "INV-1", ".pdf")
	if second != filepath.Join(dir, "INV-1__2.pdf") {
		t.Fatalf("unexpected second candidate: %s", second)
	}

	if err := os.WriteFile(second, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	third := fileutil.UniquePath(dir, "INV-1", ".pdf")
	if third != filepath.Join(dir, "INV-1__3.pdf") {
		t.Fatalf("unexpected third candidate: %s", third)
	}
}

func TestUniquePathEmptyStem(t *testing.T) {
	dir := t.TempDir()
	if got := fileutil.UniquePath(dir, "", ".pdf"); got != filepath.Join(dir, "!.pdf") {
		t.Fatalf("empty stem fallback = %s", got)
	}
}

func TestUniquePathUnstatableDirReturnsFirstCandidate(t *testing.T) {
	// dir is a regular file, so every stat fails with ENOTDIR. The first
	// candidate must come back anyway; the caller's rename reports the
	// real error.
	notADir := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(notADir, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	done := make(chan string, 1)
	go func() {
		done <- fileutil.UniquePath(notADir, "INV-1", ".pdf")
	}()

	select {
	case got := <-done:
		if got != filepath.Join(notADir, "INV-1.pdf") {
			t.Fatalf("unexpected candidate: %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("UniquePath did not return for an unstatable directory")
	}
}
