package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"shuttle/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes shape.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible
// shuttle version.
var ErrSchemaMismatch = errors.New("history schema version mismatch")

// Outcome classifies a terminal record.
type Outcome string

const (
	// OutcomeTransferred marks a file moved to its destination.
	OutcomeTransferred Outcome = "transferred"
	// OutcomeDropped marks a file explicitly abandoned with a reason.
	OutcomeDropped Outcome = "dropped"
)

// Record is one terminal outcome for a dequeued file.
type Record struct {
	ID          int64
	RunID       string
	Path        string
	Destination string
	Outcome     Outcome
	Detail      string
	Bytes       int64
	Duration    time.Duration
	CreatedAt   time.Time
}

// Store manages the transfer ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the ledger database under the configured data directory.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "history.db"))
}

// OpenPath connects to the ledger database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
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
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// RecordTransfer stores a successful transfer.
func (s *Store) RecordTransfer(ctx context.Context, runID, path, destination string, bytes int64, elapsed time.Duration) error {
	return s.insert(ctx, Record{
		RunID:       runID,
		Path:        path,
		Destination: destination,
		Outcome:     OutcomeTransferred,
		Bytes:       bytes,
		Duration:    elapsed,
	})
}

// RecordDrop stores an explicitly abandoned file with the reason it was
// given up on.
func (s *Store) RecordDrop(ctx context.Context, runID, path, destination, reason string) error {
	return s.insert(ctx, Record{
		RunID:       runID,
		Path:        path,
		Destination: destination,
		Outcome:     OutcomeDropped,
		Detail:      reason,
	})
}

func (s *Store) insert(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transfer_history (run_id, path, destination, outcome, detail, bytes, duration_ms, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Path,
		rec.Destination,
		string(rec.Outcome),
		rec.Detail,
		rec.Bytes,
		rec.Duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert %s record: %w", rec.Outcome, err)
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, path, destination, outcome, detail, bytes, duration_ms, created_at
         FROM transfer_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var outcome, createdAt string
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Path, &rec.Destination, &outcome, &rec.Detail, &rec.Bytes, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.Outcome = Outcome(outcome)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
