package report

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrUnknownStatusCode = errors.New("unknown status code")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidField      = errors.New("invalid field")
)

// UnknownStatusCodeError is returned when a raw status literal is not a member
// of its closed enumeration.
type UnknownStatusCodeError struct {
	Enum  string
	Value string
}

func (e *UnknownStatusCodeError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Enum, e.Value)
}

func (e *UnknownStatusCodeError) Is(target error) bool {
	return target == ErrUnknownStatusCode
}

// MissingFieldError is returned when a required key is absent or null.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// InvalidFieldError is returned when a key holds a value of an unexpected type.
type InvalidFieldError struct {
	Field  string
	Expect string
	Value  any
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("field %q: expected %s, got %T", e.Field, e.Expect, e.Value)
}

func (e *InvalidFieldError) Is(target error) bool {
	return target == ErrInvalidField
}
