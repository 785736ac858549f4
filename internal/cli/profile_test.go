package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depload.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProfile(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, `
catalog: ./schemas
store: sqlite:./data.db
out: ./runs/log.json
batch: 100
jobs: 8
`))
	require.NoError(t, err)
	assert.Equal(t, "./schemas", p.Catalog)
	assert.Equal(t, "sqlite:./data.db", p.Store)
	assert.Equal(t, "./runs/log.json", p.Out)
	assert.Equal(t, 100, p.Batch)
	assert.Equal(t, 8, p.Jobs)
}

func TestLoadProfile_EmptyFile(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, &Profile{}, p)
}

func TestLoadProfile_UnknownKeyRejected(t *testing.T) {
	_, err := LoadProfile(writeProfile(t, "batchsize: 100\n"))
	assert.ErrorContains(t, err, "parsing profile")
}

func TestLoadProfile_Missing(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading profile")
}
