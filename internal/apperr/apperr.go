// Package apperr defines the closed set of error kinds surfaced by the
// drift detection core. User-visible failure is always one of these
// enumerated kinds plus a structured detail object; internal messages
// (driver errors, stack traces) are never propagated verbatim.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a closed taxonomy of error categories.
type Kind string

const (
	// NotFound means a snapshot/profile/entry does not exist for the tenant.
	NotFound Kind = "not_found"
	// InvalidArgument means a missing tenant on a write, a malformed event,
	// or a negative metric. Pure components surface only this kind.
	InvalidArgument Kind = "invalid_argument"
	// Conflict means a concurrent write to the same (tenant, window) slipped
	// past enqueue-time coalescing.
	Conflict Kind = "conflict"
	// Unavailable means a transient I/O failure; the task wrapper retries it.
	Unavailable Kind = "unavailable"
	// Timeout means a task deadline was exceeded; the task wrapper retries it.
	Timeout Kind = "timeout"
	// Exhausted means retries were consumed; the task is logged and dropped.
	Exhausted Kind = "exhausted"
	// Unimplemented means the deployment has no adapter configured for this
	// integration point. Not retryable.
	Unimplemented Kind = "unimplemented"
)

// Error wraps an underlying cause with a Kind and optional structured detail.
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind wrapping cause. If cause is nil,
// Wrap returns nil — this lets callers write `return apperr.Wrap(k, msg, err)`
// without an extra nil check.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithDetail attaches structured detail fields and returns the same Error for chaining.
func (e *Error) WithDetail(detail map[string]any) *Error {
	e.Detail = detail
	return e
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to Unavailable for
// unrecognized errors — the task pipeline treats unclassified failures as
// retryable rather than silently dropping them.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Unavailable
}

// Retryable reports whether the task pipeline should retry an error of this kind.
func Retryable(err error) bool {
	switch KindOf(err) {
	case Unavailable, Timeout:
		return true
	default:
		return false
	}
}
