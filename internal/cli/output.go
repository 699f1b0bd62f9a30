package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/softgrove/graft/internal/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // successful execution
	ExitFailure      = 1 // operation failure (envelope error, scenario failures)
	ExitCommandError = 2 // command error (bad flags, unreadable files, broken config)
)

// ExitError carries a specific exit code out of a command.
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

// GetExitCode extracts the exit code from an error. Returns ExitFailure
// if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; defaults to Writer
	Verbose   bool
}

// Response is the standard JSON envelope for CLI output.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError mirrors the domain error taxonomy on the CLI surface.
type ResponseError struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format. Text
// mode pretty-prints structured data as indented JSON; plain strings
// print as-is.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}

	if s, ok := data.(string); ok {
		fmt.Fprintln(f.Writer, s)
		return nil
	}
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Error outputs a failure in the configured format. The kind should be
// a taxonomy kind (model.KindOf) so scripted callers can branch on it.
func (f *OutputFormatter) Error(kind model.ErrorKind, message string, details map[string]string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error: &ResponseError{
				Kind:    string(kind),
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "error [%s]: %s\n", kind, message)
	if f.Verbose && len(details) > 0 {
		fmt.Fprintf(f.Writer, "details: %v\n", details)
	}
	return nil
}

// DomainError outputs a Go error through the taxonomy: taxonomy errors
// keep their kind and details, foreign errors surface as internal.
func (f *OutputFormatter) DomainError(err error) error {
	var de *model.Error
	if errors.As(err, &de) {
		return f.Error(de.Kind, de.Message, de.Details)
	}
	return f.Error(model.ErrInternal, err.Error(), nil)
}

// VerboseLog outputs a message only in verbose mode. Goes to ErrWriter
// so JSON on the main writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
