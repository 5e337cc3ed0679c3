/*
Package sqlite provides a SQLite-backed implementation of history.Store.

PURPOSE:
  Persists saved calculations for the HTTP server. The request and the
  rendered result are stored as JSON documents; the headline figures are
  copied into their own columns so listings never decode the documents.

KEY TABLES:
  calculations: One row per saved calculation

INDEXES:
  - idx_calculations_created_at: Newest-first listing (hot path)
  - idx_calculations_tax_year: Listing filtered by tax year
  - idempotency_key UNIQUE: A retried POST cannot store a calculation twice

MONEY:
  Amounts are stored as decimal strings, never REAL, so a stored figure
  reads back exactly as it was written.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, and a single connection so that
  ":memory:" databases are shared by every query.

USAGE:
  store, err := sqlite.New("./data/paye.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - history/history.go: Interface definition
  - history/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/history"
)

// Store implements history.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ history.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		idempotency_key TEXT UNIQUE,
		label TEXT NOT NULL DEFAULT '',
		tax_year TEXT NOT NULL,
		gross_annual TEXT NOT NULL,
		net_annual TEXT NOT NULL,
		inputs_json TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calculations_created_at
		ON calculations(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_calculations_tax_year
		ON calculations(tax_year, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CALCULATION STORE (history.Store interface)
// =============================================================================

// Save inserts a record. IDs and idempotency keys are unique.
func (s *Store) Save(ctx context.Context, rec history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO calculations
		(id, idempotency_key, label, tax_year, gross_annual, net_annual,
		 inputs_json, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		nullString(rec.IdempotencyKey),
		rec.Label,
		rec.TaxYear,
		rec.GrossAnnual.String(),
		rec.NetAnnual.String(),
		string(rec.Inputs),
		string(rec.Result),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			if strings.Contains(err.Error(), "idempotency_key") {
				return history.ErrDuplicateIdempotencyKey
			}
			return history.ErrDuplicateID
		}
		return fmt.Errorf("failed to save calculation: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, idempotency_key, label, tax_year, gross_annual, net_annual,
	       inputs_json, result_json, created_at
	FROM calculations
`

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getOne(ctx, selectColumns+"WHERE id = ?", id)
}

// GetByIdempotencyKey retrieves the record saved under key.
func (s *Store) GetByIdempotencyKey(ctx context.Context, key string) (history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getOne(ctx, selectColumns+"WHERE idempotency_key = ?", key)
}

func (s *Store) getOne(ctx context.Context, query string, args ...any) (history.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return history.Record{}, fmt.Errorf("failed to query calculation: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return history.Record{}, err
		}
		return history.Record{}, history.ErrNotFound
	}
	return scanRecord(rows)
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, f history.Filter) ([]history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns
	var args []any
	if f.TaxYear != "" {
		query += "WHERE tax_year = ? "
		args = append(args, f.TaxYear)
	}
	query += "ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculations: %w", err)
	}
	defer rows.Close()

	var out []history.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM calculations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete calculation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return history.ErrNotFound
	}
	return nil
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM calculations")
	return err
}

func scanRecord(rows *sql.Rows) (history.Record, error) {
	var (
		rec            history.Record
		key            sql.NullString
		gross, net     string
		inputs, result string
		createdAt      string
	)
	if err := rows.Scan(&rec.ID, &key, &rec.Label, &rec.TaxYear, &gross, &net, &inputs, &result, &createdAt); err != nil {
		return history.Record{}, fmt.Errorf("failed to scan calculation: %w", err)
	}

	var err error
	if rec.GrossAnnual, err = decimal.NewFromString(gross); err != nil {
		return history.Record{}, fmt.Errorf("calculation %s: gross_annual: %w", rec.ID, err)
	}
	if rec.NetAnnual, err = decimal.NewFromString(net); err != nil {
		return history.Record{}, fmt.Errorf("calculation %s: net_annual: %w", rec.ID, err)
	}
	rec.IdempotencyKey = key.String
	rec.Inputs = []byte(inputs)
	rec.Result = []byte(result)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return rec, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
