// Package domain defines the core domain models for zero-touch enrollment.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents an enrollment error with a structured error code.
//
// Codes have the form ZTE-<AREA>-<NNNN>. Two DomainErrors compare equal
// under errors.Is when their codes match, so sentinels can be decorated
// with WithDetails/WithCause without breaking comparisons.
type DomainError struct {
	Code    string // Error code (e.g., "ZTE-TOKN-4000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Token Errors (TOKN)
// ============================================================================

var (
	// ErrTokenMalformed indicates bad encoding, length, version or variant.
	ErrTokenMalformed = NewDomainError("ZTE-TOKN-4000", "malformed token")

	// ErrTokenExpired indicates the embedded timestamp is older than the drift window.
	ErrTokenExpired = NewDomainError("ZTE-TOKN-4011", "token expired")

	// ErrTokenFuture indicates the embedded timestamp is ahead of the drift window.
	ErrTokenFuture = NewDomainError("ZTE-TOKN-4012", "token timestamp in the future")

	// ErrReplayDetected indicates the token was already registered.
	ErrReplayDetected = NewDomainError("ZTE-TOKN-4090", "replay detected")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = NewDomainError("ZTE-SYS-5000", "internal error")

	// ErrStoreUnavailable indicates the replay store could not be reached.
	ErrStoreUnavailable = NewDomainError("ZTE-SYS-5001", "replay store unavailable")

	// ErrClockUnavailable indicates no usable time source.
	ErrClockUnavailable = NewDomainError("ZTE-SYS-5002", "clock unavailable")

	// ErrTransport indicates a socket send or receive failure.
	ErrTransport = NewDomainError("ZTE-SYS-5003", "transport error")

	// ErrThrottled indicates the sender exceeded its datagram rate.
	ErrThrottled = NewDomainError("ZTE-SYS-4290", "too many enrollment attempts")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("ZTE-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("ZTE-ARG-1002", "missing required argument")
)
