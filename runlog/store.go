package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	feed TEXT NOT NULL,
	started_at TEXT NOT NULL,
	outcome TEXT NOT NULL,
	record_count INTEGER NOT NULL,
	error_detail TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL,
	bbox_minx REAL,
	bbox_miny REAL,
	bbox_maxx REAL,
	bbox_maxy REAL
);
CREATE INDEX IF NOT EXISTS idx_runs_feed_started ON runs (feed, started_at);
`

// StoreError is returned when run metadata cannot be read or written
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("runlog: io: %v", e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// Store provides SQLite-backed run metadata persistence
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the run metadata database at dbPath.
// Schema creation is idempotent and safe on every process start.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StoreError{Err: err}
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &StoreError{Err: fmt.Errorf("running migrations: %w", err)}
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one RunRecord as a single atomic row
func (s *Store) Record(ctx context.Context, rec RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (feed, started_at, outcome, record_count, error_detail, duration_ms,
			bbox_minx, bbox_miny, bbox_maxx, bbox_maxy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Feed,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		string(rec.Outcome),
		rec.RecordCount,
		rec.ErrorDetail,
		rec.Duration.Milliseconds(),
		rec.BBoxMinX,
		rec.BBoxMinY,
		rec.BBoxMaxX,
		rec.BBoxMaxY,
	)
	if err != nil {
		return &StoreError{Err: err}
	}
	return nil
}

// LastRun returns the most recent RunRecord for a feed, or nil if the
// feed has never been attempted.
func (s *Store) LastRun(ctx context.Context, feed string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT feed, started_at, outcome, record_count, error_detail, duration_ms,
			bbox_minx, bbox_miny, bbox_maxx, bbox_maxy
		FROM runs WHERE feed = ?
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`, feed)

	var (
		rec        RunRecord
		startedAt  string
		outcome    string
		durationMS int64
	)
	err := row.Scan(&rec.Feed, &startedAt, &outcome, &rec.RecordCount, &rec.ErrorDetail,
		&durationMS, &rec.BBoxMinX, &rec.BBoxMinY, &rec.BBoxMaxX, &rec.BBoxMaxY)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	rec.Outcome = Outcome(outcome)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	return &rec, nil
}
