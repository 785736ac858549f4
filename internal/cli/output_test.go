package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitPartial, GetExitCode(&ExitError{Code: ExitPartial, Message: "2 record(s) failed"}))
	assert.Equal(t, ExitCommandError, GetExitCode(&ExitError{Code: ExitCommandError, Message: "bad"}))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", &ExitError{Code: ExitPartial, Message: "inner"})
	assert.Equal(t, ExitPartial, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	assert.Equal(t, "just a message", (&ExitError{Message: "just a message"}).Error())
	assert.Equal(t, "load failed: boom",
		(&ExitError{Message: "load failed", Err: errors.New("boom")}).Error())
	assert.Equal(t, "boom", (&ExitError{Err: errors.New("boom")}).Error())
}

func TestOutputFormatterText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, f.Success("hello\n", map[string]int{"ignored": 1}))
	assert.Equal(t, "hello\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Failure(errors.New("boom")))
	assert.Equal(t, "error: boom\n", buf.String())
}

func TestOutputFormatterJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}
	require.NoError(t, f.Success("ignored", map[string]int{"count": 3}))
	assert.JSONEq(t, `{"status":"ok","data":{"count":3}}`, buf.String())

	buf.Reset()
	require.NoError(t, f.Failure(errors.New("boom")))
	assert.JSONEq(t, `{"status":"error","error":"boom"}`, buf.String())
}
