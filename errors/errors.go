// Package errors provides error handling for Crosscast.
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
//	if errors.Is(err, errors.ErrNotFound) {
//	    // handle not found
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

// Sentinel errors for the publishing core.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrInvalidPlatform indicates an unknown platform name at submission
	ErrInvalidPlatform = New("invalid platform")

	// ErrQuotaExhausted indicates a provider call was skipped because the
	// channel has no remaining quota for that provider
	ErrQuotaExhausted = New("quota_exhausted")

	// ErrProviderError indicates an external provider call raised or returned failure
	ErrProviderError = New("provider error")

	// ErrRetryLimitExceeded indicates a retry request beyond the configured maximum
	ErrRetryLimitExceeded = New("retry limit exceeded")

	// ErrNotFound indicates the requested job does not exist
	ErrNotFound = New("not found")

	// ErrNotCancellable indicates a cancel request on a job that already started
	ErrNotCancellable = New("not cancellable")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidPlatformError checks if an error is or wraps ErrInvalidPlatform.
func IsInvalidPlatformError(err error) bool {
	return err != nil && Is(err, ErrInvalidPlatform)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidPlatformError creates an invalid-platform error with a formatted message
func NewInvalidPlatformError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidPlatform, Newf(format, args...).Error())
}
