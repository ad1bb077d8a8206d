package crud

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Update when the id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidField marks patches or queries naming an unknown field or
	// carrying a value of the wrong type.
	ErrInvalidField = errors.New("invalid field")
)

// NotFound wraps ErrNotFound with the entity and id.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// FieldError describes a rejected field reference.
type FieldError struct {
	Entity     string
	Field      string
	Reason     string
	Suggestion string
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("%s field %q: %s", e.Entity, e.Field, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *FieldError) Unwrap() error { return ErrInvalidField }
