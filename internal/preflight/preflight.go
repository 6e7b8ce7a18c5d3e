package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"docsort/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Source directory", cfg.Paths.SourceDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckQuarantineWritable(cfg.QuarantineDir()),
	}

	if cfg.Paths.MinFreeMB > 0 {
		results = append(results, CheckFreeSpace(cfg.Paths.SourceDir, cfg.Paths.MinFreeMB))
	}
	if cfg.Identity.ExtractCommand != "" {
		results = append(results, CheckExtractBinary(cfg.Identity.ExtractCommand))
	}

	return results
}

// Passed reports whether every result in the slice passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckQuarantineWritable verifies the quarantine subdirectory can be created
// and written. It is created on demand when missing.
func CheckQuarantineWritable(path string) Result {
	const name = "Quarantine directory"

	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", path, err)}
	}
	if err := unix.Access(path, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minFreeMB
// megabytes available.
func CheckFreeSpace(path string, minFreeMB int64) Result {
	const name = "Free disk space"

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	freeMB := int64(stat.Bavail) * stat.Bsize / (1 << 20)
	if freeMB < minFreeMB {
		return Result{Name: name, Detail: fmt.Sprintf("%d MB free, need %d MB", freeMB, minFreeMB)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d MB free", freeMB)}
}

// CheckExtractBinary verifies the text-extraction command resolves on PATH
// or points at an executable file.
func CheckExtractBinary(command string) Result {
	const name = "Text extraction"

	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Name: name, Detail: "no command configured"}
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", command, err)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}
