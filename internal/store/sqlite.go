package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/soward/depload/internal/record"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a file-backed store client. SQLite permits one writer at a
// time, so the connection pool is pinned to a single connection; Write
// calls from concurrent workers serialize on it.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies pragmas and
// schema. Idempotent: safe to point at an existing loader database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite store: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// WAL keeps readers unblocked during the load; NORMAL sync is the
	// usual durability/throughput balance; the busy timeout rides out
	// transient lock contention from other processes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying sqlite store schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Write upserts one record. The store-side identity of an external-id
// record is the external id itself.
func (s *SQLite) Write(ctx context.Context, model, identity string, fields []record.Field) (string, error) {
	encoded, err := encodeFields(fields)
	if err != nil {
		return "", &WriteError{Model: model, Identity: identity, Err: err}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (model, external_id, fields, loaded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(model, external_id) DO UPDATE SET
			fields = excluded.fields,
			loaded_at = excluded.loaded_at
	`, model, identity, encoded, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", &WriteError{Model: model, Identity: identity, Err: err}
	}
	return identity, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
