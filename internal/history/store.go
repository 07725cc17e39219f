// Package history records action invocations in a local sqlite database so
// operators can audit what the agent actually did.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Invocation is one recorded action dispatch.
type Invocation struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"` // llm_label of the dispatched action
	Type      string    `json:"type"`   // action type key
	Payload   string    `json:"payload,omitempty"`
	Status    string    `json:"status"` // "success" or "error"
	Error     string    `json:"error,omitempty"`
	Source    string    `json:"source,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	ElapsedMs int64     `json:"elapsedMs"`
}

// Stats summarizes the invocation log.
type Stats struct {
	Total     int64 `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}

// Store is the sqlite-backed invocation log.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the invocation log at the given path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: wal mode: %w", err)
	}

	s := &Store{db: db, logger: logger.With("component", "history")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return s, nil
}

// migrate creates tables on first run.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS invocations (
		id         TEXT PRIMARY KEY,
		action     TEXT NOT NULL,
		type       TEXT NOT NULL DEFAULT '',
		payload    TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL,
		error      TEXT NOT NULL DEFAULT '',
		source     TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_invocations_started ON invocations(started_at)`)
	return err
}

// Record appends one invocation to the log. An empty ID is filled in.
func (s *Store) Record(ctx context.Context, inv Invocation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.StartedAt.IsZero() {
		inv.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (id, action, type, payload, status, error, source, started_at, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Action, inv.Type, inv.Payload, inv.Status, inv.Error, inv.Source,
		inv.StartedAt.UnixMilli(), inv.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns the newest invocations, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Invocation, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, type, payload, status, error, source, started_at, elapsed_ms
		 FROM invocations ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var invs []Invocation
	for rows.Next() {
		var inv Invocation
		var startedMs int64
		if err := rows.Scan(&inv.ID, &inv.Action, &inv.Type, &inv.Payload, &inv.Status,
			&inv.Error, &inv.Source, &startedMs, &inv.ElapsedMs); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		inv.StartedAt = time.UnixMilli(startedMs)
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

// ActionStats returns per-log totals.
func (s *Store) ActionStats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0)
		 FROM invocations`)
	if err := row.Scan(&st.Total, &st.Succeeded, &st.Failed); err != nil {
		return Stats{}, fmt.Errorf("history: stats: %w", err)
	}
	return st, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
