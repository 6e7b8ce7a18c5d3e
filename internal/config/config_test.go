package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docsort/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	if cfg.Paths.SourceDir == "" {
		t.Fatal("default source dir empty")
	}
	if cfg.Watcher.PollIntervalMS != 250 {
		t.Fatalf("default poll interval = %d", cfg.Watcher.PollIntervalMS)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != missing {
		t.Fatalf("resolved path = %s, want %s", resolved, missing)
	}
	if cfg.Watcher.RequiredStableTicks != 2 {
		t.Fatalf("default stable ticks = %d", cfg.Watcher.RequiredStableTicks)
	}
	if cfg.Pipeline.TickIntervalMS != 100 {
		t.Fatalf("default tick interval = %d", cfg.Pipeline.TickIntervalMS)
	}
}

func TestLoadParsesAndExpands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
source_dir = "` + filepath.Join(dir, "in") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = " 127.0.0.1:9000 "

[watcher]
poll_interval_ms = 50
required_stable_ticks = 3

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Paths.APIBind != "127.0.0.1:9000" {
		t.Fatalf("api bind not trimmed: %q", cfg.Paths.APIBind)
	}
	if cfg.Watcher.RequiredStableTicks != 3 {
		t.Fatalf("stable ticks = %d", cfg.Watcher.RequiredStableTicks)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not lowercased: %+v", cfg.Logging)
	}
	if !filepath.IsAbs(cfg.Paths.SourceDir) {
		t.Fatalf("source dir not absolute: %s", cfg.Paths.SourceDir)
	}
}

func TestLoadRejectsBadLogging(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}

func TestQuarantineDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.SourceDir = "/data/in"
	if got := cfg.QuarantineDir(); got != filepath.Join("/data/in", config.QuarantineDirName) {
		t.Fatalf("QuarantineDir = %s", got)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error on second WriteSample")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[watcher]") {
		t.Fatal("sample config missing watcher section")
	}
}
