package domain

import (
	"errors"
	"fmt"
)

// ErrDegenerateCrossSection marks a date that cannot be evaluated
// (too few assets, non-unique quantile edges, zero variance). It is
// never fatal to a run.
var ErrDegenerateCrossSection = errors.New("degenerate cross-section")

type MissingFieldError struct {
	Field string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("panel is missing required field %q", e.Field)
}

type FactorShapeError struct {
	Field    string
	WantRows int
	WantCols int
	GotRows  int
	GotCols  int
}

func (e FactorShapeError) Error() string {
	return fmt.Sprintf(
		"%s has shape (%d, %d), expected (%d, %d)",
		e.Field, e.GotRows, e.GotCols, e.WantRows, e.WantCols,
	)
}

// IsContractError reports whether err was caused by invalid caller input
// rather than a failure while computing.
func IsContractError(err error) bool {
	return errors.As(err, &MissingFieldError{}) ||
		errors.As(err, &FactorShapeError{}) ||
		errors.As(err, &InvalidInputError{})
}

type InvalidInputError struct {
	Err error
}

func (e InvalidInputError) Error() string {
	return e.Err.Error()
}

func (e InvalidInputError) Unwrap() error {
	return e.Err
}
