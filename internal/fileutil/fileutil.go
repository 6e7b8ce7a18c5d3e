package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// NormalizePath resolves a path to its cleaned absolute form. Paths are
// compared byte-for-byte after normalization, so every component that stores
// or looks up a path must route it through here first.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return filepath.Clean(abs)
}

// IsPDF reports whether the file name carries a .pdf extension, case-insensitive.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// IsUnder reports whether candidate equals root or lives somewhere below it.
// Both arguments are normalized before comparison.
func IsUnder(root, candidate string) bool {
	root = NormalizePath(root)
	candidate = NormalizePath(candidate)
	if root == "" || candidate == "" {
		return false
	}
	if candidate == root {
		return true
	}
	return strings.HasPrefix(candidate, root+string(os.PathSeparator))
}

// HashFile streams the file through SHA-256 and returns the lowercase hex digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsHexDigest reports whether value is a well-formed SHA-256 hex digest.
func IsHexDigest(value string) bool {
	if len(value) != sha256.Size*2 {
		return false
	}
	for _, r := range strings.ToLower(value) {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

var invalidStemChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeStem strips characters that are unsafe in file names and trims
// trailing dots and spaces, which some filesystems reject. The result may be
// empty when nothing usable remains.
func SanitizeStem(stem string) string {
	stem = strings.TrimSpace(stem)
	stem = invalidStemChars.ReplaceAllString(stem, "_")
	return strings.TrimRight(stem, " .")
}

// UniquePath returns the first path of the form stem+ext, stem__2+ext,
// stem__3+ext, ... inside dir that is not known to exist. An empty stem falls
// back to "!". A candidate whose stat fails for any reason counts as free:
// the rename that follows surfaces the real error and the caller degrades to
// its in-place fallback, so the loop terminates even on a broken directory.
func UniquePath(dir, stem, ext string) string {
	if stem == "" {
		stem = "!"
	}
	first := filepath.Join(dir, stem+ext)
	if !pathKnownToExist(first) {
		return first
	}
	for i := 2; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s__%d%s", stem, i, ext))
		if !pathKnownToExist(candidate) {
			return candidate
		}
	}
}

func pathKnownToExist(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
