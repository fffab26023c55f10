// Package store persists run status and, on completion, the full
// ordered event list as a JSON blob. The result column is written
// exactly once per run; relay connections only ever read it.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/claimstream/internal/logging"
	"github.com/ppiankov/claimstream/internal/model"
)

// ErrNotFound is returned when no run exists for the given slug.
var ErrNotFound = errors.New("store: run not found")

// Store handles persistence of runs in SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.Error("Failed to open database", "path", path, "error", err)
		return nil, err
	}
	// SQLite allows one writer; serialize access through a single conn.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		logging.Error("Failed to migrate database", "error", err)
		return nil, err
	}

	logging.Info("Result store initialized", "path", path)
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'pending',
		result TEXT,
		created_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_runs_slug ON runs(slug);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateRun inserts a pending run row for the slug.
func (s *Store) CreateRun(slug string) (*model.Run, error) {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO runs (slug, status, created_at) VALUES (?, ?, ?)`,
		slug, string(model.StatusPending), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &model.Run{ID: slug, Status: model.StatusPending, CreatedAt: now}, nil
}

// GetRun returns the run for the slug, including the persisted result
// events when the run has completed.
func (s *Store) GetRun(slug string) (*model.Run, error) {
	row := s.db.QueryRow(
		`SELECT slug, status, result, created_at, completed_at FROM runs WHERE slug = ?`,
		slug,
	)

	var (
		run         model.Run
		status      string
		result      sql.NullString
		completedAt sql.NullTime
	)
	if err := row.Scan(&run.ID, &status, &result, &run.CreatedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Status = model.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if result.Valid && result.String != "" {
		if err := json.Unmarshal([]byte(result.String), &run.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return &run, nil
}

// MarkStreaming transitions a pending run to streaming. Later states
// are never overwritten.
func (s *Store) MarkStreaming(slug string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ? WHERE slug = ? AND status = ?`,
		string(model.StatusStreaming), slug, string(model.StatusPending),
	)
	return err
}

// CompleteRun persists the full ordered event list and marks the run
// completed. The result is written only if none exists yet; a second
// call is a no-op.
func (s *Store) CompleteRun(slug string, events []model.Event) error {
	blob, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, result = ?, completed_at = ? WHERE slug = ? AND result IS NULL`,
		string(model.StatusCompleted), string(blob), time.Now().UTC(), slug,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		logging.Warn("Result already persisted, skipping", "run", slug)
	}
	return nil
}

// FailRun marks the run failed so future lookups never hang on an
// ambiguous state.
func (s *Store) FailRun(slug string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ? WHERE slug = ?`,
		string(model.StatusFailed), time.Now().UTC(), slug,
	)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
