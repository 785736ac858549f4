// Package store holds the target data store clients. The loader engine
// treats the client as its sole side-effecting dependency: one record in,
// one write out, no transactional grouping assumed across records.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soward/depload/internal/record"
)

// Client writes one record to the target store. The returned string is the
// store-side identity of the written record. Implementations must be safe
// for concurrent Write calls: records within one batch are dispatched in
// parallel.
type Client interface {
	Write(ctx context.Context, model, identity string, fields []record.Field) (string, error)
	Close() error
}

// Open selects a backend by DSN scheme: `sqlite:<path>` or a
// `postgres://` / `postgresql://` connection string.
func Open(ctx context.Context, dsn string) (Client, error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		return OpenSQLite(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store DSN %q: use sqlite:<path> or postgres://...", dsn)
	}
}

// WriteError wraps a per-record store failure with the record's key so the
// summary can name it.
type WriteError struct {
	Model    string
	Identity string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s/%s: %v", e.Model, e.Identity, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// encodeFields serializes a record's fields as a JSON array of
// [name, value] pairs, preserving input order.
func encodeFields(fields []record.Field) (string, error) {
	pairs := make([][2]string, len(fields))
	for i, f := range fields {
		pairs[i] = [2]string{f.Name, f.Value}
	}
	raw, err := json.Marshal(pairs)
	if err != nil {
		return "", fmt.Errorf("encoding fields: %w", err)
	}
	return string(raw), nil
}
