package store

import (
	"context"
	"sync"

	"github.com/soward/depload/internal/record"
)

// Memory is an in-process store client for tests. It records writes in
// arrival order and can fail selected keys to exercise blocked-dependent
// propagation.
type Memory struct {
	mu     sync.Mutex
	writes []record.Key
	rows   map[record.Key][]record.Field

	// Fail maps record keys to the error their write should return.
	Fail map[record.Key]error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		rows: make(map[record.Key][]record.Field),
		Fail: make(map[record.Key]error),
	}
}

// Write stores the record or returns the injected failure for its key.
func (m *Memory) Write(ctx context.Context, model, identity string, fields []record.Field) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &WriteError{Model: model, Identity: identity, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := record.Key{Model: model, Identity: identity}
	if err, ok := m.Fail[k]; ok {
		return "", &WriteError{Model: model, Identity: identity, Err: err}
	}
	m.writes = append(m.writes, k)
	m.rows[k] = fields
	return identity, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// Writes returns all successful writes in arrival order.
func (m *Memory) Writes() []record.Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]record.Key, len(m.writes))
	copy(out, m.writes)
	return out
}

// Has reports whether the key was written.
func (m *Memory) Has(model, identity string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[record.Key{Model: model, Identity: identity}]
	return ok
}
