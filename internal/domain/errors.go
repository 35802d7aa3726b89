package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoEvidence indicates a well-formed provider response with zero
	// candidates. It is a normal outcome, not a failure; callers must
	// not conflate it with genuine I/O errors.
	ErrNoEvidence = errors.New("no evidence found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderDisabled indicates that a provider is configured off.
	ErrProviderDisabled = errors.New("provider disabled")

	// ErrProviderDegraded indicates that a provider was skipped for the
	// remainder of an aggregation after consecutive failures.
	ErrProviderDegraded = errors.New("provider degraded")
)

// ExternalAPIError reports a network-level failure against a provider:
// timeout, connection refused, or a non-2xx status.
type ExternalAPIError struct {
	Source     SourceType
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// ParseError reports a malformed or unexpectedly shaped provider
// response body.
type ParseError struct {
	Source SourceType
	Cause  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s response parse error: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source SourceType, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// NewParseError creates a new ParseError.
func NewParseError(source SourceType, cause error) *ParseError {
	return &ParseError{
		Source: source,
		Cause:  cause,
	}
}
