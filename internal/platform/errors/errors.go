package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrNoActiveSession    = errors.New("no active session")
	ErrPersistStartFailed = errors.New("persist start failed")
	ErrPersistStopFailed  = errors.New("persist stop failed")
	ErrCheckpointFailed   = errors.New("checkpoint failed")
)

// ValidationError carries a human readable reason for rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
