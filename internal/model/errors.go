package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by every package. Callers classify with errors.Is.
var (
	// ErrInvalidInput is returned for numerically invalid arguments
	// (non-positive step, non-positive LTV, non-positive interest cost).
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration is returned for unknown presets and missing calibration fields.
	ErrConfiguration = errors.New("configuration error")

	// ErrNumericDegeneracy is returned when a stressed cell has no defined DSCR.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)

// InvalidInputError names the offending field and value.
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field string, value float64, reason string) error {
	return &InvalidInputError{Field: field, Value: value, Reason: reason}
}
