// Package errors is a drop-in replacement for the standard errors package
// that additionally carries the engine's error taxonomy. Validation and
// compile errors are rejected synchronously at creation time; execution and
// dispatch errors surface only in history and audit views.
package errors

import (
	"errors"
	"fmt"
)

// Standard library re-exports so call sites only import this package.

func New(text string) error                 { return errors.New(text) }
func Is(err, target error) bool             { return errors.Is(err, target) }
func As(err error, target any) bool         { return errors.As(err, target) }
func Unwrap(err error) error                { return errors.Unwrap(err) }
func Join(errs ...error) error              { return errors.Join(errs...) }
func Errorf(format string, a ...any) error  { return fmt.Errorf(format, a...) }

// ValidationError reports malformed input (bad time range, bad cron
// expression, unknown trigger/condition combination). It is returned before
// any side effect takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidation creates a ValidationError for the given field.
func NewValidation(field, format string, a ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, a...)}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CompileError reports pipeline query text that cannot be turned into an
// executable form. Pos is a zero-based byte offset into the query text, or
// -1 when no position is known.
type CompileError struct {
	Pos     int
	Message string
}

func (e *CompileError) Error() string {
	if e.Pos < 0 {
		return "compile: " + e.Message
	}
	return fmt.Sprintf("compile: %s (at offset %d)", e.Message, e.Pos)
}

// NewCompile creates a CompileError at the given offset.
func NewCompile(pos int, format string, a ...any) *CompileError {
	return &CompileError{Pos: pos, Message: fmt.Sprintf(format, a...)}
}

// IsCompile reports whether err is or wraps a CompileError.
func IsCompile(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// ExecutionError reports a data-store failure or timeout during query
// execution. The run is retried on the next scheduled cycle, never
// immediately.
type ExecutionError struct {
	Timeout bool
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Timeout {
		return "execution timed out: " + e.Err.Error()
	}
	return "execution failed: " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// NewExecution wraps a data-store failure.
func NewExecution(err error) *ExecutionError { return &ExecutionError{Err: err} }

// NewExecutionTimeout wraps a per-execution timeout.
func NewExecutionTimeout(err error) *ExecutionError {
	return &ExecutionError{Timeout: true, Err: err}
}

// IsExecution reports whether err is or wraps an ExecutionError.
func IsExecution(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// DispatchError reports a single notification action that failed to
// deliver. It is recorded per action and never fails sibling actions or
// the overall run.
type DispatchError struct {
	Action string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Action, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// NewDispatch wraps a per-action delivery failure.
func NewDispatch(action string, err error) *DispatchError {
	return &DispatchError{Action: action, Err: err}
}
