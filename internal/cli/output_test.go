package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	plain := NewExitError(ExitFailure, "it failed")
	assert.Equal(t, "it failed", plain.Error())
	assert.Nil(t, plain.Unwrap())

	cause := errors.New("root cause")
	wrapped := WrapExitError(ExitCommandError, "context", cause)
	assert.Equal(t, "context: root cause", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	// ExitError found through a wrapping chain.
	deep := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(deep))
}

func TestFormatter_SuccessText(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: "text", Writer: &buf}
	require.NoError(t, f.Success("all good"))
	assert.Equal(t, "all good\n", buf.String())
}

func TestFormatter_SuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Success(map[string]int{"count": 3}))

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data["count"])
}

func TestFormatter_FailureJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Failure(ErrCodeNotFound, "missing", nil))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "missing", resp.Error.Message)
}

func TestFormatter_DiagGatedByVerbose(t *testing.T) {
	var out, diag bytes.Buffer
	f := &Formatter{Format: "text", Writer: &out, ErrWriter: &diag}

	f.Diag("hidden %d", 1)
	assert.Empty(t, diag.String())

	f.Verbose = true
	f.Diag("shown %d", 2)
	assert.Equal(t, "shown 2\n", diag.String())
	assert.Empty(t, out.String(), "diagnostics must not reach stdout")
}
