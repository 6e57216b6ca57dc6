// Package apperr defines the error kinds shared by the pipelines and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any persistence.
	ErrValidation = errors.New("validation error")
	// ErrPermission marks a caller lacking the required tour role.
	ErrPermission = errors.New("permission denied")
	// ErrNotFound marks a missing row.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists marks a unique constraint hit.
	ErrAlreadyExists = errors.New("already exists")
)

// Validation wraps a formatted message as an ErrValidation.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps a resource description as an ErrNotFound.
func NotFound(resource, id string) error {
	return fmt.Errorf("%s %w: %s", resource, ErrNotFound, id)
}
