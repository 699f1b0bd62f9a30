package model

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes operation failures. Kinds cross the coordinator
// boundary intact and appear verbatim in result envelopes.
type ErrorKind string

const (
	// ErrNotFound indicates a referenced id is absent or forgotten.
	ErrNotFound ErrorKind = "not_found"

	// ErrNotActive indicates a scope operation on a scope the owner has
	// not entered.
	ErrNotActive ErrorKind = "not_active"

	// ErrConflict indicates an invariant violation, such as amending an
	// already-superseded fact or forgetting an entity with live relations.
	ErrConflict ErrorKind = "conflict"

	// ErrInvalidArgument indicates a missing or malformed payload field.
	ErrInvalidArgument ErrorKind = "invalid_argument"

	// ErrUnknownOperation indicates an unregistered verb name.
	ErrUnknownOperation ErrorKind = "unknown_operation"

	// ErrInternal indicates an unexpected failure (storage engine, I/O,
	// lock timeout). Distinct from the domain kinds so callers can tell
	// "you did something invalid" from "the system failed".
	ErrInternal ErrorKind = "internal"
)

// Error is the domain error shared by the stores, the scope manager, and
// the dispatcher.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]string

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewNotFound creates a not_found error.
func NewNotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewNotActive creates a not_active error.
func NewNotActive(format string, args ...any) *Error {
	return &Error{Kind: ErrNotActive, Message: fmt.Sprintf(format, args...)}
}

// NewConflict creates a conflict error.
func NewConflict(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidArgument creates an invalid_argument error.
func NewInvalidArgument(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NewUnknownOperation creates an unknown_operation error.
func NewUnknownOperation(op string) *Error {
	return &Error{
		Kind:    ErrUnknownOperation,
		Message: fmt.Sprintf("operation %q is not registered", op),
		Details: map[string]string{"op": op},
	}
}

// WrapInternal wraps an unexpected failure as an internal error, keeping
// the cause reachable through errors.Unwrap.
func WrapInternal(err error, format string, args ...any) *Error {
	return &Error{
		Kind:    ErrInternal,
		Message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// WithDetail returns the error with one detail key set, for diagnostics
// surfaced in envelopes.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string, 1)
	}
	e.Details[key] = value
	return e
}

// IsNotFound reports whether err is a not_found domain error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrNotFound
}

// IsNotActive reports whether err is a not_active domain error.
func IsNotActive(err error) bool {
	return KindOf(err) == ErrNotActive
}

// IsConflict reports whether err is a conflict domain error.
func IsConflict(err error) bool {
	return KindOf(err) == ErrConflict
}

// IsInvalidArgument reports whether err is an invalid_argument domain error.
func IsInvalidArgument(err error) bool {
	return KindOf(err) == ErrInvalidArgument
}

// IsUnknownOperation reports whether err is an unknown_operation domain error.
func IsUnknownOperation(err error) bool {
	return KindOf(err) == ErrUnknownOperation
}

// KindOf returns the taxonomy kind for err. Errors outside the taxonomy
// map to internal, so foreign failures never masquerade as domain ones.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrInternal
}
