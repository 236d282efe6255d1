package data

import "errors"

// ErrNotFound is returned when an item is not found in the store.
var ErrNotFound = errors.New("item not found")

// ErrConflict is returned when creating an item whose id is already taken.
var ErrConflict = errors.New("item already exists")

// ValidationError reports client input that failed validation, such as a
// disallowed upload type or a malformed id.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a ValidationError with the given reason.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}
