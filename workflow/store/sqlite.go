package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs and checkpoints in a single-file database, so
// a run paused for human review survives process restarts. WAL mode keeps
// concurrent readers from blocking the writer.
//
// Use ":memory:" as the path for an ephemeral database in tests.
type SQLiteStore[S any] struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// migrates the schema.
func NewSQLiteStore[S any](path string) (*SQLiteStore[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer at a time; keep the single connection alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLiteStore[S]{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore[S]) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS run_steps (
	run_id     TEXT NOT NULL,
	step       INTEGER NOT NULL,
	node       TEXT NOT NULL,
	state_json TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (run_id, step)
);
CREATE TABLE IF NOT EXISTS run_checkpoints (
	checkpoint_id TEXT PRIMARY KEY,
	step          INTEGER NOT NULL,
	state_json    TEXT NOT NULL,
	created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveStep implements Store.
func (s *SQLiteStore[S]) SaveStep(ctx context.Context, runID string, step int, node string, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO run_steps (run_id, step, node, state_json) VALUES (?, ?, ?, ?)`,
		runID, step, node, string(data))
	return err
}

// LoadLatest implements Store.
func (s *SQLiteStore[S]) LoadLatest(ctx context.Context, runID string) (S, int, error) {
	var zero S
	var stateJSON string
	var step int
	err := s.db.QueryRowContext(ctx,
		`SELECT step, state_json FROM run_steps WHERE run_id = ? ORDER BY step DESC LIMIT 1`,
		runID).Scan(&step, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, 0, ErrNotFound
	}
	if err != nil {
		return zero, 0, err
	}
	var state S
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return zero, 0, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, step, nil
}

// SaveCheckpoint implements Store.
func (s *SQLiteStore[S]) SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO run_checkpoints (checkpoint_id, step, state_json) VALUES (?, ?, ?)`,
		cpID, step, string(data))
	return err
}

// LoadCheckpoint implements Store.
func (s *SQLiteStore[S]) LoadCheckpoint(ctx context.Context, cpID string) (S, int, error) {
	var zero S
	var stateJSON string
	var step int
	err := s.db.QueryRowContext(ctx,
		`SELECT step, state_json FROM run_checkpoints WHERE checkpoint_id = ?`,
		cpID).Scan(&step, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, 0, ErrNotFound
	}
	if err != nil {
		return zero, 0, err
	}
	var state S
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return zero, 0, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, step, nil
}

// Close closes the underlying database.
func (s *SQLiteStore[S]) Close() error {
	return s.db.Close()
}
