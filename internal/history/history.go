package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Runs returned by [Store.List] when no limit is given.
const DefaultLimit = 20

// A single recorded operation.
type Run struct {
	ID        int64         `json:"id"`
	Operation string        `json:"operation"`        // pdf, markdown or recipe.
	Source    string        `json:"source"`           // Source directory as given.
	Target    string        `json:"target,omitempty"` // Output file or recipe path.
	Engine    string        `json:"engine,omitempty"` // Engine that evaluated the run.
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: create directory: %w", ErrHistory, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", ErrHistory, err)
	}

	// The CLI and the daemon may share the file.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set WAL mode: %w", ErrHistory, err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set busy timeout: %w", ErrHistory, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrHistory, err)
	}

	return s, nil
}

// Closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			operation   TEXT NOT NULL,
			source      TEXT NOT NULL,
			target      TEXT NOT NULL DEFAULT '',
			engine      TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			started_at  TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

// Appends a run.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (operation, source, target, engine, status, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Operation, run.Source, run.Target, run.Engine, string(run.Status), run.Error,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHistory, err)
	}
	return nil
}

// Returns up to limit runs, newest first. A non-positive limit uses
// [DefaultLimit].
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operation, source, target, engine, status, error, started_at, duration_ms
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistory, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrHistory, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistory, err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var status, started string
	var ms int64

	err := rows.Scan(&run.ID, &run.Operation, &run.Source, &run.Target, &run.Engine,
		&status, &run.Error, &started, &ms)
	if err != nil {
		return Run{}, err
	}

	run.Status = Status(status)
	run.Duration = time.Duration(ms) * time.Millisecond
	run.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", started, err)
	}
	return run, nil
}
