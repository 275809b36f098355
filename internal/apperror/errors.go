package apperror

import (
	"errors"
	"fmt"
)

// ValidationError is an input problem the caller can fix and resubmit.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a referenced id that does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func NotFound(entity string, id uint) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConstraintKind tells which store constraint rejected a write.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// ConstraintError is raised by the store when a unique index or foreign key
// rejected a write. Services surface it to callers as a ValidationError.
type ConstraintError struct {
	Kind  ConstraintKind
	Field string
	Err   error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s constraint violated on %s: %v", e.Kind, e.Field, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// AsValidation converts a ConstraintError into the ValidationError shown to
// the caller. Other errors are returned unchanged.
func AsValidation(err error) error {
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		return err
	}
	switch ce.Kind {
	case ConstraintUnique:
		return Validation(ce.Field, fmt.Sprintf("The %s has already been taken.", humanize(ce.Field)))
	case ConstraintForeignKey:
		return Validation(ce.Field, fmt.Sprintf("The selected %s is invalid.", humanize(ce.Field)))
	}
	return Validation(ce.Field, "The value is invalid.")
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func humanize(field string) string {
	out := []byte(field)
	for i, c := range out {
		if c == '_' {
			out[i] = ' '
		}
	}
	return string(out)
}
