package settings

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

// Settings are the user-tunable folder preferences. Empty values mean the
// daemon falls back to its config defaults.
type Settings struct {
	SourceFolder string `json:"source_folder"`
	DestFolder   string `json:"dest_folder"`
	ExportFolder string `json:"export_folder"`
}

// Store reads and writes the settings file. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	path   string
	schema *jsonschema.Schema
}

// NewStore builds a store for the settings file at path. The file need not
// exist yet.
func NewStore(path string) (*Store, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("settings.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add settings schema: %w", err)
	}
	schema, err := compiler.Compile("settings.json")
	if err != nil {
		return nil, fmt.Errorf("compile settings schema: %w", err)
	}
	return &Store{path: path, schema: schema}, nil
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file. A missing file yields zero-valued settings.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if err := s.validate(data); err != nil {
		return Settings{}, err
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return loaded, nil
}

// Save validates and atomically replaces the settings file.
func (s *Store) Save(value Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.validate(data); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Merge applies the non-empty fields of patch onto current and returns the
// result. Whitespace-only values are treated as empty.
func Merge(current, patch Settings) Settings {
	merged := current
	if v := strings.TrimSpace(patch.SourceFolder); v != "" {
		merged.SourceFolder = v
	}
	if v := strings.TrimSpace(patch.DestFolder); v != "" {
		merged.DestFolder = v
	}
	if v := strings.TrimSpace(patch.ExportFolder); v != "" {
		merged.ExportFolder = v
	}
	return merged
}

func (s *Store) validate(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parse settings: %w", err)
	}
	if err := s.schema.Validate(v); err != nil {
		return fmt.Errorf("settings do not match schema: %w", err)
	}
	return nil
}
