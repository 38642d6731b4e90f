package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/labledger/internal/ledger"
)

func TestExitError(t *testing.T) {
	base := errors.New("boom")
	err := WrapExitError(ExitCommandError, "failed", base)

	assert.Equal(t, "failed: boom", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, ExitFailure, GetExitCode(base))
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.False(t, Reported(err))
}

func TestOutputFormatter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]int{"n": 1}, "ignored"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"n": float64(1)}, resp.Data)
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success(nil, "done"))
	require.NoError(t, f.Error("E001", "bad", map[string]string{"x": "y"}))

	assert.Contains(t, buf.String(), "✓ done")
	assert.Contains(t, buf.String(), "Error [E001]: bad")
	assert.NotContains(t, buf.String(), "Details", "details only in verbose mode")
}

func TestOutputFormatter_VerboseLogGoesToErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	f.VerboseLog("hello %d", 1)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "hello 1")
}

func TestOutputFormatter_Rejected(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	h := ledger.NewHandler(ledger.NewMemStore(), nil)
	_, rejection := h.Amend(context.Background(), ledger.Signed("C1"), ledger.Submission{Subject: []byte("patient-42")})
	require.Error(t, rejection)

	err := f.Rejected(rejection)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, Reported(err))
	assert.True(t, ledger.IsNotFound(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "no such test", resp.Error.Message)

	buf.Reset()
	err = f.Rejected(errors.New("disk gone"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeStore)
}
