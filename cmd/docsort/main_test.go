package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docsort/internal/daemon"
	"docsort/internal/logging"
	"docsort/internal/testsupport"
)

func sleepShort() {
	time.Sleep(50 * time.Millisecond)
}

func startTestDaemon(t *testing.T) (string, string) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Watcher.PollIntervalMS = 10
	cfg.Pipeline.TickIntervalMS = 10
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	store := testsupport.MustOpenJournal(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(t.Context()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	return d.Addr(), cfg.Paths.SourceDir
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestStatusCommandAgainstDaemon(t *testing.T) {
	addr, _ := startTestDaemon(t)

	out, err := runCommand(t, "--addr", addr, "status")
	if err != nil {
		t.Fatalf("status command: %v", err)
	}
	if !strings.Contains(out, "Running") || !strings.Contains(out, "Ready") {
		t.Fatalf("unexpected status output:\n%s", out)
	}
}

func TestRowsCommandEmptyLedger(t *testing.T) {
	addr, _ := startTestDaemon(t)

	out, err := runCommand(t, "--addr", addr, "rows")
	if err != nil {
		t.Fatalf("rows command: %v", err)
	}
	if !strings.Contains(out, "No rows.") {
		t.Fatalf("unexpected rows output:\n%s", out)
	}
}

func TestDepositCommandNoReadyRows(t *testing.T) {
	addr, _ := startTestDaemon(t)

	out, err := runCommand(t, "--addr", addr, "deposit")
	if err != nil {
		t.Fatalf("deposit command: %v", err)
	}
	if !strings.Contains(out, "0 rows deposited") {
		t.Fatalf("unexpected deposit output:\n%s", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output:\n%s", out)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite must fail")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with --overwrite: %v", err)
	}
}

func TestRowsFlowOverCLI(t *testing.T) {
	addr, sourceDir := startTestDaemon(t)

	testsupport.WriteFile(t, filepath.Join(sourceDir, "scan.pdf"), "body")

	var rowID string
	deadline := 100
	for range deadline {
		out, err := runCommand(t, "--addr", addr, "rows", "--status", "review")
		if err != nil {
			t.Fatalf("rows command: %v", err)
		}
		if idx := strings.Index(out, "Review"); idx >= 0 {
			for _, field := range strings.Fields(out) {
				if len(field) == 36 && strings.Count(field, "-") == 4 {
					rowID = field
					break
				}
			}
		}
		if rowID != "" {
			break
		}
		sleepShort()
	}
	if rowID == "" {
		t.Fatal("no review row surfaced through the CLI")
	}

	if _, err := runCommand(t, "--addr", addr, "resolve", rowID, "INV-777", "--type", "Tax Invoice"); err != nil {
		t.Fatalf("resolve command: %v", err)
	}
	out, err := runCommand(t, "--addr", addr, "deposit")
	if err != nil {
		t.Fatalf("deposit command: %v", err)
	}
	if !strings.Contains(out, "1 rows deposited") {
		t.Fatalf("unexpected deposit output:\n%s", out)
	}

	out, err = runCommand(t, "--addr", addr, "history", "--event", "deposited")
	if err != nil {
		t.Fatalf("history command: %v", err)
	}
	if !strings.Contains(out, "INV-777") {
		t.Fatalf("deposited entry missing from history:\n%s", out)
	}
}
