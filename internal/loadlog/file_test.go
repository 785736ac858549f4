package loadlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(model, identity string, outcome Outcome) Entry {
	return Entry{
		Model:     model,
		Identity:  identity,
		Outcome:   outcome,
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		RunID:     "run-1",
	}
}

func TestFile_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	l, err := Open(path, nil)
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Contains("res.partner", "p1"))

	// Opening must not create the file; only the first append does.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFile_RecordAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	l, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, l.Record(entry("res.partner", "p1", OutcomeSuccess)))
	require.NoError(t, l.Record(entry("res.partner", "p2", OutcomeFailure)))
	require.NoError(t, l.Close())

	replayed, err := Open(path, nil)
	require.NoError(t, err)
	defer replayed.Close()

	assert.Equal(t, 2, replayed.Len())
	assert.True(t, replayed.Contains("res.partner", "p1"))
	assert.False(t, replayed.Contains("res.partner", "p2"),
		"failure entries must never satisfy a dependent")
	assert.False(t, replayed.Contains("account.invoice", "p1"))
}

func TestFile_AppendAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	first, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Record(entry("res.partner", "p1", OutcomeSuccess)))
	require.NoError(t, first.Close())

	second, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, second.Record(entry("res.partner", "p2", OutcomeSuccess)))
	require.NoError(t, second.Close())

	entries, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "p1", entries[0].Identity)
	assert.Equal(t, "p2", entries[1].Identity)
}

func TestFile_PartialTrailingLineIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	raw := `{"model":"res.partner","identity":"p1","outcome":"success","timestamp":"2024-06-01T12:00:00Z"}
{"model":"res.partner","identity":"p2","outco`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	l, err := Open(path, nil)
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, 1, l.Len())
	assert.True(t, l.Contains("res.partner", "p1"))
	assert.False(t, l.Contains("res.partner", "p2"))
}

func TestFile_MalformedMidFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	raw := `{"model":"res.partner","identity":"p1","outcome":"success","timestamp":"2024-06-01T12:00:00Z"}
not json at all
{"model":"res.partner","identity":"p2","outcome":"success","timestamp":"2024-06-01T12:00:00Z"}
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, err := Open(path, nil)
	assert.ErrorContains(t, err, "line 2")
}

func TestFile_RecordVisibleImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	l, err := Open(path, nil)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Record(entry("res.partner", "p1", OutcomeSuccess)))
	assert.True(t, l.Contains("res.partner", "p1"))

	// The line is already durable on disk, not just buffered.
	entries, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, OutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, "run-1", entries[0].RunID)
}

func TestMemory_SeedAndFailInjection(t *testing.T) {
	m := NewMemory()
	m.Seed("res.partner", "p1")
	assert.True(t, m.Contains("res.partner", "p1"))

	require.NoError(t, m.Record(entry("res.partner", "p2", OutcomeSuccess)))
	assert.True(t, m.Contains("res.partner", "p2"))

	m.FailOn = func(e Entry) error {
		if e.Identity == "p3" {
			return assert.AnError
		}
		return nil
	}
	err := m.Record(entry("res.partner", "p3", OutcomeSuccess))
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, m.Contains("res.partner", "p3"))
}
