package cli

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soward/depload/internal/engine"
	"github.com/soward/depload/internal/record"
)

func TestRootRejectsInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "log"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootListsSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := make(map[string]bool)
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"load", "plan", "log", "catalog"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRenderSummary(t *testing.T) {
	sum := &engine.Summary{
		RunID:   "0190f8a0-0000-7000-8000-000000000000",
		Batches: 3,
		Loaded:  5,
		Skipped: 2,
		Failed:  1,
		Blocked: 2,
		Failures: []engine.RecordError{
			{Key: record.Key{Model: "res.partner", Identity: "p9"}, Err: "connection reset"},
		},
		BlockedKeys: []record.Key{
			{Model: "res.partner", Identity: "p10"},
			{Model: "account.invoice", Identity: "i3"},
		},
	}

	g := goldie.New(t)
	g.Assert(t, "summary_text", []byte(renderSummary(sum)))
}
