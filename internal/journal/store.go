package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"docsort/internal/config"
	"docsort/internal/docs"
	"docsort/internal/identity"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; existing journal databases must then be deleted.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Event names recorded in the journal.
const (
	EventIngested    = "ingested"
	EventDuplicate   = "duplicate"
	EventDeposited   = "deposited"
	EventQuarantined = "quarantined"
)

// Entry is one journal row.
type Entry struct {
	ID          string
	OccurredAt  time.Time
	Event       string
	BatchID     int64
	Fingerprint string
	DocNumber   string
	DocType     string
	SourcePath  string
	RenamedPath string
}

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Open initializes or connects to the journal database in the log directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "journal.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}

	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func (s *Store) insert(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return s.execWithRetry(ctx,
		`INSERT INTO journal_entries (
            id, occurred_at, event, batch_id, fingerprint,
            doc_number, doc_type, source_path, renamed_path
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.OccurredAt.Format(time.RFC3339Nano),
		e.Event,
		e.BatchID,
		nullableString(e.Fingerprint),
		nullableString(e.DocNumber),
		nullableString(e.DocType),
		nullableString(e.SourcePath),
		nullableString(e.RenamedPath),
	)
}

// RecordResult journals one identity resolution outcome. A duplicate that
// was physically moved additionally gets a quarantined entry carrying the
// destination path, so the journal separates moved duplicates from ones left
// in place.
func (s *Store) RecordResult(ctx context.Context, res identity.Result) error {
	event := EventIngested
	if res.Kind == identity.KindDuplicateSkipped {
		event = EventDuplicate
	}
	err := s.insert(ctx, Entry{
		Event:       event,
		BatchID:     res.BatchID,
		Fingerprint: res.Fingerprint,
		DocNumber:   res.DocNumber,
		DocType:     string(res.DocType),
		SourcePath:  res.OriginalPath,
		RenamedPath: res.RenamedPath,
	})
	if err != nil {
		return fmt.Errorf("journal result: %w", err)
	}
	if res.QuarantinedPath != "" {
		err = s.insert(ctx, Entry{
			Event:       EventQuarantined,
			BatchID:     res.BatchID,
			Fingerprint: res.Fingerprint,
			SourcePath:  res.OriginalPath,
			RenamedPath: res.QuarantinedPath,
		})
		if err != nil {
			return fmt.Errorf("journal quarantine: %w", err)
		}
	}
	return nil
}

// RecordDeposit journals one deposited row.
func (s *Store) RecordDeposit(ctx context.Context, row *docs.Row) error {
	err := s.insert(ctx, Entry{
		Event:       EventDeposited,
		Fingerprint: row.Fingerprint,
		DocNumber:   row.DisplayName,
		DocType:     string(row.Type),
		SourcePath:  row.SourcePath,
	})
	if err != nil {
		return fmt.Errorf("journal deposit: %w", err)
	}
	return nil
}

// Recent returns up to limit entries newest first, optionally filtered by
// event name.
func (s *Store) Recent(ctx context.Context, event string, limit int) ([]Entry, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, occurred_at, event, batch_id, fingerprint,
            doc_number, doc_type, source_path, renamed_path
        FROM journal_entries`
	args := []any{}
	if event != "" {
		query += " WHERE event = ?"
		args = append(args, event)
	}
	query += " ORDER BY occurred_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			occurredAt  string
			fingerprint sql.NullString
			docNumber   sql.NullString
			docType     sql.NullString
			sourcePath  sql.NullString
			renamedPath sql.NullString
		)
		if err := rows.Scan(&e.ID, &occurredAt, &e.Event, &e.BatchID,
			&fingerprint, &docNumber, &docType, &sourcePath, &renamedPath); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, occurredAt); parseErr == nil {
			e.OccurredAt = ts
		}
		e.Fingerprint = fingerprint.String
		e.DocNumber = docNumber.String
		e.DocType = docType.String
		e.SourcePath = sourcePath.String
		e.RenamedPath = renamedPath.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByEvent returns the number of entries per event name.
func (s *Store) CountByEvent(ctx context.Context) (map[string]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT event, COUNT(1) FROM journal_entries GROUP BY event")
	if err != nil {
		return nil, fmt.Errorf("count journal: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			event string
			n     int
		)
		if err := rows.Scan(&event, &n); err != nil {
			return nil, fmt.Errorf("scan journal count: %w", err)
		}
		counts[event] = n
	}
	return counts, rows.Err()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
