// Package store persists relay settings, push state, deployment history and
// the tenant index in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pushes (
	id               INTEGER PRIMARY KEY CHECK (id = 1),
	repository       TEXT NOT NULL,
	repository_name  TEXT NOT NULL,
	head_commit_id   TEXT NOT NULL,
	before_commit_id TEXT NOT NULL,
	received_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS deployments (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	repository TEXT NOT NULL,
	file_path  TEXT NOT NULL,
	action     TEXT NOT NULL,
	tenant     TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT '',
	details    TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS deployments_created_at ON deployments (created_at);

CREATE TABLE IF NOT EXISTS tenants (
	repository TEXT NOT NULL,
	file_path  TEXT NOT NULL,
	tenant     TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (repository, file_path)
);
`

// Store wraps the relay database
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the database and creates the schema if needed
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}
