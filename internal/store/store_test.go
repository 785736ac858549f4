package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soward/depload/internal/record"
)

func TestOpen_DispatchesByScheme(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, "sqlite:"+filepath.Join(t.TempDir(), "depload.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLite{}, c)
	require.NoError(t, c.Close())

	_, err = Open(ctx, "mysql://nope")
	assert.ErrorContains(t, err, "unsupported store DSN")
}

func TestSQLite_WriteAndUpsert(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "depload.db"))
	require.NoError(t, err)
	defer s.Close()

	id, err := s.Write(ctx, "res.partner", "p1", []record.Field{
		{Name: "name", Value: "Acme"},
		{Name: "city", Value: "Berlin"},
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	// A second write for the same key replaces the row, it does not
	// duplicate it.
	_, err = s.Write(ctx, "res.partner", "p1", []record.Field{
		{Name: "name", Value: "Acme GmbH"},
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM records WHERE model = ? AND external_id = ?`,
		"res.partner", "p1").Scan(&count))
	assert.Equal(t, 1, count)

	var fields string
	require.NoError(t, s.db.QueryRow(
		`SELECT fields FROM records WHERE model = ? AND external_id = ?`,
		"res.partner", "p1").Scan(&fields))
	assert.JSONEq(t, `[["name","Acme GmbH"]]`, fields)
}

func TestSQLite_OpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "depload.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	_, err = first.Write(ctx, "res.partner", "p1", nil)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMemory_FailInjection(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Fail[record.Key{Model: "res.partner", Identity: "bad"}] = assert.AnError

	_, err := m.Write(ctx, "res.partner", "good", []record.Field{{Name: "name", Value: "ok"}})
	require.NoError(t, err)

	_, err = m.Write(ctx, "res.partner", "bad", nil)
	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "bad", werr.Identity)
	assert.ErrorIs(t, err, assert.AnError)

	assert.True(t, m.Has("res.partner", "good"))
	assert.False(t, m.Has("res.partner", "bad"))
	assert.Equal(t, []record.Key{{Model: "res.partner", Identity: "good"}}, m.Writes())
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	_, err := m.Write(ctx, "res.partner", "p1", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncodeFields_PreservesOrder(t *testing.T) {
	encoded, err := encodeFields([]record.Field{
		{Name: "z", Value: "1"},
		{Name: "a", Value: "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, `[["z","1"],["a","2"]]`, encoded)
}
