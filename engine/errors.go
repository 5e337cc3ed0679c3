/*
errors.go - Error types for the calculation engine

ERROR CATEGORIES:
  1. Invalid input - a value no fallback can repair (NaN, infinity)
  2. Configuration - no tax-year tables were supplied

  Everything else is repaired rather than rejected: negative amounts are
  clamped to zero, percentages to [0,100], unknown tax years fall back to
  the latest table, unparseable tax codes to the standard allowance.

USAGE:
  result, err := eng.Calculate(inputs)
  if errors.Is(err, engine.ErrInvalidInput) {
      var inErr *engine.InputError
      errors.As(err, &inErr) // inErr.Field names the offending input
  }
*/
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when an input cannot be calculated on.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoTables is returned by an Engine constructed without a registry.
	ErrNoTables = errors.New("no tax year tables configured")
)

// InputError names the field that failed validation.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
