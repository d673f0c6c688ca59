package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidRequest indicates a malformed probe request
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation deadline was exceeded
	ErrTimeout = errors.New("operation timeout")
)

// Chain data errors

var (
	// ErrDataUnavailable indicates the chain reader cannot serve the requested range
	ErrDataUnavailable = errors.New("chain data unavailable")

	// ErrChainNotConfigured indicates no RPC endpoint is configured for a chain
	ErrChainNotConfigured = errors.New("chain not configured")
)

// Probe pipeline errors

var (
	// ErrDetectionFailure indicates a single-transaction pattern detection error.
	// Recovered locally; processing of subsequent transactions continues.
	ErrDetectionFailure = errors.New("pattern detection failure")

	// ErrPublishFailed indicates the evidence sink is unreachable.
	// The probe still completes, with the evidence fields marked unpublished.
	ErrPublishFailed = errors.New("evidence publish failed")

	// ErrSubmissionFailed indicates a test transaction send failed.
	// Recorded in the probe result errors; non-fatal.
	ErrSubmissionFailed = errors.New("test transaction submission failed")

	// ErrAllWorkersFailed indicates every worker of a distributed probe failed
	ErrAllWorkersFailed = errors.New("all probe workers failed")
)

// MultiError accumulates the errors of one probe execution
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// Messages returns the accumulated error messages
func (m *MultiError) Messages() []string {
	msgs := make([]string, 0, len(m.Errors))
	for _, err := range m.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
