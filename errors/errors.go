// Package errors provides error handling for the revision sync engine.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrRevisionNotFound) {
//	    // skip reconciliation
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Common sentinel errors for the sync engine.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrRevisionNotFound indicates a target revision id does not resolve to
	// an existing revision. Materialization short-circuits on this error and
	// the caller skips reconciliation entirely for the invocation.
	ErrRevisionNotFound = New("revision not found")

	// ErrStaleData indicates a structured-data write carried a version stamp
	// older than what the index already holds for the document
	ErrStaleData = New("structured data is stale")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrSyncDisabled indicates the semantic index capability is switched off
	ErrSyncDisabled = New("semantic sync is disabled")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound or ErrRevisionNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && IsAny(err, ErrNotFound, ErrRevisionNotFound)
}

// IsStaleDataError checks if an error is or wraps ErrStaleData
func IsStaleDataError(err error) bool {
	return err != nil && Is(err, ErrStaleData)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
