package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers classify failures with errors.Is.
var (
	// ErrValidation marks malformed input rejected before any store mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown identity or an instance id outside the replica range.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists marks a create that lost the race against a concurrent create.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConflict marks an update carrying a stale resourceVersion. Retryable by the caller.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable marks the store or orchestrator state being unreachable.
	ErrUnavailable = errors.New("unavailable")
)

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf returns an error wrapping ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
