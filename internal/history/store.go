// Package history persists completed conversions in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gtrackerpro/unitconverter/internal/common/fsutil"
	"github.com/gtrackerpro/unitconverter/pkg/types"
)

// Limits for Recent.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Store reads and writes the conversion_log table.
type Store struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path and
// ensures the schema exists. ":memory:" is accepted for tests.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if path != ":memory:" {
		if err := fsutil.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := BootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BootstrapSQLite creates tables and indexes if missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversion_log (
  id              TEXT PRIMARY KEY,
  input_value     REAL NOT NULL,
  from_unit       TEXT NOT NULL,
  to_unit         TEXT NOT NULL,
  converted_value REAL NOT NULL,
  mode            TEXT NOT NULL,
  time_taken_ms   REAL NOT NULL,
  created_at      TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS conversion_log_created_at_idx ON conversion_log(created_at);`,
		`CREATE INDEX IF NOT EXISTS conversion_log_units_idx ON conversion_log(from_unit, to_unit);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}

// Open opens the database at path and wraps it in a Store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already bootstrapped database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Insert stores e. Empty ID and zero Timestamp are filled in.
func (s *Store) Insert(ctx context.Context, e types.HistoryEntry) (types.HistoryEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversion_log (id, input_value, from_unit, to_unit, converted_value, mode, time_taken_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		e.ID, e.InputValue, e.FromUnit, e.ToUnit, e.ConvertedValue, e.Mode, e.TimeTakenMS,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return e, fmt.Errorf("insert conversion: %w", err)
	}
	return e, nil
}

// ClampLimit maps a requested limit onto [1, MaxLimit], 0 meaning default.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_value, from_unit, to_unit, converted_value, mode, time_taken_ms, created_at
FROM conversion_log ORDER BY created_at DESC, rowid DESC LIMIT ?;`, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []types.HistoryEntry{}
	for rows.Next() {
		var e types.HistoryEntry
		var ts string
		if err := rows.Scan(&e.ID, &e.InputValue, &e.FromUnit, &e.ToUnit, &e.ConvertedValue, &e.Mode, &e.TimeTakenMS, &ts); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Timestamp = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
