package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrNoActiveSession     = errors.New("no active session")
	ErrActiveSessionExists = errors.New("active session already exists")
	ErrRemoteSource        = errors.New("remote source error")
	ErrUninitialized       = errors.New("database not initialized")

	// ErrSessionTooShort is a validation failure; errors.Is matches both.
	ErrSessionTooShort = fmt.Errorf("%w: session too short", ErrValidation)
)

// Invalid wraps ErrValidation with a formatted detail.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
