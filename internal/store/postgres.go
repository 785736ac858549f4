package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soward/depload/internal/record"
)

// Postgres is a pgx-backed store client. Unlike sqlite, the pool serves
// concurrent workers with real parallelism.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the target database and ensures the records
// table exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres store: %w", err)
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			model       TEXT NOT NULL,
			external_id TEXT NOT NULL,
			fields      JSONB NOT NULL,
			loaded_at   TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (model, external_id)
		)
	`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying postgres store schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Write upserts one record.
func (p *Postgres) Write(ctx context.Context, model, identity string, fields []record.Field) (string, error) {
	encoded, err := encodeFields(fields)
	if err != nil {
		return "", &WriteError{Model: model, Identity: identity, Err: err}
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO records (model, external_id, fields, loaded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (model, external_id) DO UPDATE SET
			fields = EXCLUDED.fields,
			loaded_at = EXCLUDED.loaded_at
	`, model, identity, encoded, time.Now().UTC())
	if err != nil {
		return "", &WriteError{Model: model, Identity: identity, Err: err}
	}
	return identity, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
