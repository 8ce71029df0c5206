// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package history keeps a short per-user trail of audit events, keyed by the
// directory DN of the record's subject (the target of helpdesk events,
// otherwise the perpetrator).
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tomtom215/audittrail/internal/audit"
)

// ErrNoSubject is returned by UpdateUserHistory for a record without a DN.
var ErrNoSubject = errors.New("audit record has no subject DN")

// UserHistoryStore records and reads per-user audit history.
type UserHistoryStore interface {
	UpdateUserHistory(ctx context.Context, r *audit.Record) error
	ReadUserHistory(ctx context.Context, dn string) ([]*audit.Record, error)
}

// Config holds history store settings.
type Config struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
	// MaxEntriesPerUser is how many events are kept per DN.
	MaxEntriesPerUser int `koanf:"max_entries_per_user" validate:"min=1"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		Path:              "./data/history.db",
		MaxEntriesPerUser: 100,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS user_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	dn TEXT NOT NULL,
	guid TEXT NOT NULL UNIQUE,
	event_code TEXT NOT NULL,
	timestamp INTEGER NOT NULL, -- Unix nanoseconds
	record TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_history_dn ON user_history(dn, id);
`

// SQLiteStore is a UserHistoryStore backed by SQLite.
type SQLiteStore struct {
	db         *sql.DB
	maxEntries int
}

var _ UserHistoryStore = (*SQLiteStore)(nil)

// Open opens or creates the history database at cfg.Path.
func Open(cfg Config) (*SQLiteStore, error) {
	if cfg.MaxEntriesPerUser < 1 {
		return nil, fmt.Errorf("history: max entries per user must be at least 1")
	}
	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &SQLiteStore{db: db, maxEntries: cfg.MaxEntriesPerUser}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpdateUserHistory appends r to its subject's history and drops entries
// beyond the per-user limit.
func (s *SQLiteStore) UpdateUserHistory(ctx context.Context, r *audit.Record) error {
	dn := r.SubjectDN()
	if dn == "" {
		return ErrNoSubject
	}
	data, err := audit.Marshal(r)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history update: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_history (dn, guid, event_code, timestamp, record)
		VALUES (?, ?, ?, ?, ?)
	`, dn, r.GUID, string(r.EventCode), r.Timestamp.UnixNano(), string(data)); err != nil {
		return fmt.Errorf("insert history for %s: %w", dn, err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM user_history
		WHERE dn = ? AND id NOT IN (
			SELECT id FROM user_history WHERE dn = ? ORDER BY id DESC LIMIT ?
		)
	`, dn, dn, s.maxEntries); err != nil {
		return fmt.Errorf("trim history for %s: %w", dn, err)
	}

	return tx.Commit()
}

// ReadUserHistory returns the stored events for dn, newest first.
// Unreadable rows are skipped.
func (s *SQLiteStore) ReadUserHistory(ctx context.Context, dn string) ([]*audit.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record FROM user_history WHERE dn = ? ORDER BY id DESC
	`, dn)
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w", dn, err)
	}
	defer rows.Close()

	var out []*audit.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := audit.Unmarshal([]byte(data))
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountUsers returns the number of distinct DNs with history.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT dn) FROM user_history`).Scan(&n)
	return n, err
}
