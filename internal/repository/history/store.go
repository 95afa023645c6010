package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // Registers the "sqlite" driver.

	"github.com/oshokin/climate-alarm/internal/domain/climate"
)

//go:embed schema.sql
var schema string

const (
	driverName    = "sqlite"
	dirPermission = 0o755
	// DefaultRecentLimit is used when Recent is asked for a non-positive limit.
	DefaultRecentLimit = 100
	// MaxRecentLimit caps a single Recent query.
	MaxRecentLimit = 10_000
)

var (
	// ErrPathRequired is returned by Open for an empty path.
	ErrPathRequired = errors.New("history path is required")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("history store is closed")
)

// Entry is one journaled sample.
type Entry struct {
	At      time.Time
	Reading climate.Reading
}

// Store is a SQLite-backed reading journal.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

// Open opens or creates the journal at path and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrPathRequired
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), dirPermission); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	// One writer keeps SQLite away from SQLITE_BUSY and makes ":memory:" a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 1000",
	} {
		if _, err = db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("apply history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Append stores one entry.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if s.closed.Load() {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings(sampled_at, temperature, humidity) VALUES(?, ?, ?)`,
		e.At.UnixMilli(), e.Reading.Primary, e.Reading.Secondary,
	)
	if err != nil {
		return fmt.Errorf("append reading: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sampled_at, temperature, humidity FROM readings ORDER BY sampled_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)

	for rows.Next() {
		var (
			ms    int64
			entry Entry
		)

		if err = rows.Scan(&ms, &entry.Reading.Primary, &entry.Reading.Secondary); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}

		entry.At = time.UnixMilli(ms)
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}

	return entries, nil
}

// Prune deletes entries sampled before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM readings WHERE sampled_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune readings: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune readings: %w", err)
	}

	return removed, nil
}

// Close releases the database. It is safe to call more than once.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	return s.db.Close()
}
