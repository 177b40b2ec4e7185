// Package history provides a SQLite-backed journal of routines sync runs.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/dagaz/internal/routines"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	triggered_by TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	created     INTEGER NOT NULL DEFAULT 0,
	items       TEXT NOT NULL DEFAULT '[]',
	error       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at);
`

// Run is one recorded sync run.
type Run struct {
	ID         int64                  `json:"id"`
	Trigger    string                 `json:"trigger"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Created    int                    `json:"created"`
	Items      []routines.CreatedItem `json:"items"`
	Error      string                 `json:"error,omitempty"`
}

// DB wraps a sql.DB with journal operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite journal and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// RecordRun appends one run to the journal. runErr may be nil.
func (db *DB) RecordRun(trigger string, startedAt, finishedAt time.Time, res routines.Result, runErr error) error {
	items := res.Items
	if items == nil {
		items = []routines.CreatedItem{}
	}
	itemsJSON, _ := json.Marshal(items)

	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}

	_, err := db.conn.Exec(`
		INSERT INTO sync_runs (triggered_by, started_at, finished_at, created, items, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, trigger, startedAt.UTC(), finishedAt.UTC(), res.Created, string(itemsJSON), errText)
	if err != nil {
		return fmt.Errorf("history: record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, triggered_by, started_at, finished_at, created, items, error
		FROM sync_runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var itemsJSON string
		if err := rows.Scan(&r.ID, &r.Trigger, &r.StartedAt, &r.FinishedAt, &r.Created, &itemsJSON, &r.Error); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(itemsJSON), &r.Items); err != nil {
			r.Items = []routines.CreatedItem{}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
