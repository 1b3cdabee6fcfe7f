package agent

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse indicates the backend returned no usable candidates.
var ErrEmptyResponse = errors.New("empty response from generator")

// RetryableError wraps a transient generation failure.
type RetryableError struct {
	Backend string
	Err     error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// FatalError wraps a generation failure that retrying will not fix.
type FatalError struct {
	Backend string
	Err     error
	Hint    string
}

func (e *FatalError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Backend, e.Err, e.Hint)
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Retryable marks err as transient.
func Retryable(backend string, err error) error {
	return &RetryableError{Backend: backend, Err: err}
}

// Fatal marks err as permanent.
func Fatal(backend string, err error) error {
	return &FatalError{Backend: backend, Err: err}
}

// IsRetryable reports whether err should be retried. Fatal errors and bare
// context errors are not; unclassified errors are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
