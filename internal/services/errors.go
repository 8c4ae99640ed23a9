package services

import (
	"errors"
	"fmt"
)

// Error categories mapped to HTTP statuses by the handlers. Services wrap
// them with a descriptive message: fmt.Errorf("%w: preco must be positive",
// ErrValidation).
var (
	// ErrValidation marks malformed or rule-breaking input (400)
	ErrValidation = errors.New("validation failed")

	// ErrForbidden marks operations by a caller who is not the owner (403)
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks references to missing rows (404)
	ErrNotFound = errors.New("not found")

	// ErrConflict marks date overlaps, duplicate addresses and duplicate
	// reviews (400)
	ErrConflict = errors.New("conflict")
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
