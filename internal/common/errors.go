// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Cache and storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Backend errors.
	ErrAPIConnection = errors.New("api connection failed")
	ErrAPIRateLimit  = errors.New("api rate limit exceeded")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// InvalidFilterError reports a filter field outside its declared range.
// Raised synchronously before any I/O so callers never observe a
// half-applied filter.
type InvalidFilterError struct {
	Field  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter: %s %s", e.Field, e.Reason)
}

// InvalidIDError reports a malformed entity identifier. IDs are validated
// locally before they are ever placed on the wire.
type InvalidIDError struct {
	Kind string
	ID   string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid %s id: %q", e.Kind, e.ID)
}

// InvalidTransitionError reports a claim state-machine violation. The
// attempted transition is rejected before any network call is made.
type InvalidTransitionError struct {
	ClaimID   string
	From      string
	Attempted string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("claim %s is %s: cannot %s", e.ClaimID, e.From, e.Attempted)
}

// FetchError wraps a network or HTTP failure with enough context for the
// caller to decide its own retry policy. Message carries the
// server-provided error message when the backend sent one.
type FetchError struct {
	Err      error
	Endpoint string
	Message  string
	Status   int
	Page     int
}

func (e *FetchError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("fetch %s page %d failed: %s", e.Endpoint, e.Page, e.Message)
	}
	return fmt.Sprintf("fetch %s page %d failed: %v", e.Endpoint, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrAPIRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
