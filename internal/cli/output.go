package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes shared by every command.
const (
	ExitSuccess      = 0 // scenario(s) passed, queries succeeded
	ExitFailure      = 1 // assertion failure, golden mismatch, replay divergence
	ExitCommandError = 2 // bad paths, unreadable database, malformed input
)

// ExitError carries an exit code through cobra's RunE return path so main
// can map failures to meaningful process exit statuses.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Non-ExitError failures
// map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope every command emits with --format json.
type Response struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *ErrorDoc `json:"error,omitempty"`
}

// ErrorDoc is the error payload of a Response.
type ErrorDoc struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error codes used in JSON output.
const (
	ErrCodeNotFound    = "E_NOT_FOUND"    // missing file, directory, or run
	ErrCodeBadScenario = "E_BAD_SCENARIO" // scenario failed to parse or validate
	ErrCodeTestFailed  = "E_TEST_FAILED"  // one or more scenarios failed
	ErrCodeDivergence  = "E_DIVERGENCE"   // replay does not reproduce the trace
	ErrCodeStore       = "E_STORE"        // trace database error
)

// Formatter routes command output to text or JSON form.
type Formatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; defaults to Writer
	Verbose   bool
}

// Success emits a success payload in the configured format.
func (f *Formatter) Success(data any) error {
	if f.Format == "json" {
		return writeJSON(f.Writer, Response{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Failure emits an error payload in the configured format.
func (f *Formatter) Failure(code, message string, details any) error {
	if f.Format == "json" {
		return writeJSON(f.Writer, Response{
			Status: "error",
			Error:  &ErrorDoc{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Diag writes a diagnostic line when verbose mode is on. Diagnostics go to
// ErrWriter so they never corrupt JSON on stdout.
func (f *Formatter) Diag(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
