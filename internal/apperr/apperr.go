// Package apperr defines the error kinds shared by the catalog packages.
// Package-level sentinels wrap these so callers can branch with errors.Is
// without importing the package that produced the error.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrProviderUnavailable = errors.New("metadata provider unavailable")
	ErrConflict            = errors.New("conflict")
)

// ValidationError reports a single invalid field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid is shorthand for &ValidationError{Field: field, Message: message}.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Unavailable marks err as a metadata provider failure.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrProviderUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
}
