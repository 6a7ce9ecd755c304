// Package storage persists an audit trail of liveness status records.
//
// The table is write-only from the bot's perspective: nothing in the core
// reads it back. It exists so operators can inspect uptime history after
// the fact. Storage is disabled (nil Store) unless a path is configured.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "ttsbot/pkg/logx"
)

var ErrDisabled = errors.New("storage disabled")

const schema = `
CREATE TABLE IF NOT EXISTS bot_status (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	status TEXT NOT NULL,
	last_health_check TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bot_status_ts ON bot_status(timestamp);
`

type Store struct {
	db  *sql.DB
	log logx.Logger
}

// Open initializes the SQLite store at path. Returns (nil, nil) when path is
// empty (storage disabled).
func Open(path string, log logx.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, log: log}, nil
}

// AppendStatus records one liveness observation.
func (s *Store) AppendStatus(ctx context.Context, at time.Time, status string, lastCheck time.Time) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_status(timestamp, status, last_health_check) VALUES(?,?,?)`,
		at.UTC().Format(time.RFC3339Nano), status, lastCheck.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
