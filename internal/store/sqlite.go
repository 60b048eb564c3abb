// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides thread/run audit persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS threads (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			last_message_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_threads_last_message
			ON threads(last_message_at DESC);

		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			status TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (thread_id) REFERENCES threads(id)
		);

		CREATE INDEX IF NOT EXISTS idx_runs_thread_id
			ON runs(thread_id);

		CREATE INDEX IF NOT EXISTS idx_runs_thread_created
			ON runs(thread_id, created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// CreateThread inserts a new thread audit record
func (s *SQLiteStore) CreateThread(ctx context.Context, thread *Thread) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO threads (id, created_at, last_message_at) VALUES (?, ?, ?)`,
		thread.ID, thread.CreatedAt, thread.LastMessageAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicateThread
		}
		return fmt.Errorf("inserting thread: %w", err)
	}
	return nil
}

// GetThread retrieves a thread audit record by ID
func (s *SQLiteStore) GetThread(ctx context.Context, id string) (*Thread, error) {
	var thread Thread
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, last_message_at FROM threads WHERE id = ?`, id,
	).Scan(&thread.ID, &thread.CreatedAt, &thread.LastMessageAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying thread: %w", err)
	}
	return &thread, nil
}

// TouchThread updates a thread's last_message_at timestamp.
// A thread the gateway has not seen before is created on the fly, so relays
// into caller-supplied threads still show up in the audit index.
func (s *SQLiteStore) TouchThread(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE threads SET last_message_at = ? WHERE id = ?`, at, id,
	)
	if err != nil {
		return fmt.Errorf("touching thread: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touching thread: %w", err)
	}
	if rows == 0 {
		return s.CreateThread(ctx, &Thread{ID: id, CreatedAt: at, LastMessageAt: at})
	}
	return nil
}

// ListThreads returns threads ordered by most recent activity
func (s *SQLiteStore) ListThreads(ctx context.Context, limit int) ([]*Thread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, last_message_at FROM threads
		 ORDER BY last_message_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer rows.Close()

	var threads []*Thread
	for rows.Next() {
		var thread Thread
		if err := rows.Scan(&thread.ID, &thread.CreatedAt, &thread.LastMessageAt); err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		threads = append(threads, &thread)
	}
	return threads, rows.Err()
}

// RecordRun inserts a new run audit record
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, thread_id, status, attempts, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ThreadID, run.Status, run.Attempts, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// UpdateRun sets the status and poll attempt count of an existing run record
func (s *SQLiteStore) UpdateRun(ctx context.Context, id, status string, attempts int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, attempts = ?, updated_at = ? WHERE id = ?`,
		status, attempts, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRunsByThread returns runs for a thread, newest first
func (s *SQLiteStore) ListRunsByThread(ctx context.Context, threadID string, limit int) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, status, attempts, created_at, updated_at FROM runs
		 WHERE thread_id = ? ORDER BY created_at DESC LIMIT ?`, threadID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.ThreadID, &run.Status, &run.Attempts, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
