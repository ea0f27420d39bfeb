// Package errors provides the standardized error taxonomy for the analyzer.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Missing or empty credential. Raised before any network call.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// Transport failure or an error payload returned by the data provider.
	ErrCodeProvider ErrorCode = "PROVIDER_ERROR"
	// The provider answered successfully but with zero companies.
	ErrCodeEmptyResult ErrorCode = "EMPTY_RESULT"
	// A stored cache entry could not be parsed. Never leaves the cache package.
	ErrCodeCacheCorruption ErrorCode = "CACHE_CORRUPTION"
	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// A newer load replaced this one.
	ErrCodeFetchSuperseded ErrorCode = "FETCH_SUPERSEDED"

	ErrCodeInvalidFilterFormat ErrorCode = "INVALID_FILTER_FORMAT"
	ErrCodeInvalidSortField    ErrorCode = "INVALID_SORT_FIELD"
	ErrCodeStatePersistence    ErrorCode = "STATE_PERSISTENCE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Informational reports whether the error describes a non-fatal condition
// the caller should render as an empty state rather than a failure.
func (e *StandardError) Informational() bool {
	return e.Code == ErrCodeEmptyResult
}

// NewConfigurationError is returned when the credential is missing.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Please enter a valid Public Torn API Key.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderError carries the provider's message verbatim.
func NewProviderError(message string, cause error) *StandardError {
	if message == "" {
		message = "Unknown API Error"
	}
	e := &StandardError{
		Code:      ErrCodeProvider,
		Message:   message,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// NewProviderAPIError wraps an error payload returned by the provider.
// Provider-side error codes are kept as metadata and not interpreted.
func NewProviderAPIError(code int, message string) *StandardError {
	e := NewProviderError(message, nil)
	e.Retryable = false
	e.Metadata = map[string]interface{}{"providerCode": code}
	return e
}

// NewEmptyResultError signals a successful fetch that yielded no companies.
func NewEmptyResultError(categoryID int) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyResult,
		Message:   "No companies found for this type.",
		Details:   fmt.Sprintf("categoryId: %d", categoryID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheCorruptionError describes an unparsable stored entry.
func NewCacheCorruptionError(key string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheCorruption,
		Message:   "Cached entry is corrupt",
		Details:   fmt.Sprintf("key: %s, error: %v", key, cause),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewCacheUnavailableError wraps a storage transport failure.
func NewCacheUnavailableError(op string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Cache storage unavailable",
		Details:   fmt.Sprintf("op: %s, error: %v", op, cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewFetchSupersededError is returned to a load whose result was discarded
// because a newer load started.
func NewFetchSupersededError(categoryID int, seq, latest uint64) *StandardError {
	return &StandardError{
		Code:      ErrCodeFetchSuperseded,
		Message:   "Load superseded by a newer request",
		Details:   fmt.Sprintf("categoryId: %d, seq: %d, latest: %d", categoryID, seq, latest),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFilterFormatError creates a non-retryable filter format error.
func NewInvalidFilterFormatError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFilterFormat,
		Message:   "Invalid filter format",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSortFieldError creates a non-retryable sort selection error.
func NewInvalidSortFieldError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSortField,
		Message:   "Invalid sort selection",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStatePersistenceError wraps a failure to flush session state.
func NewStatePersistenceError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStatePersistence,
		Message:   "Failed to persist session state",
		Details:   cause.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// As extracts a StandardError from err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}
