package loan

import "errors"

// ErrValidation matches every *ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

// User-facing reasons, one per rejected field.
const (
	ReasonPrincipal  = "Principal amount must be a positive number."
	ReasonRate       = "Interest rate must be a positive number."
	ReasonTerm       = "Loan term must be a positive number of years."
	ReasonFrequency  = "Please select a valid compounding frequency."
	ReasonRatePeriod = "Please select a valid rate period."
	ReasonPaid       = "Amount paid cannot be negative."
	ReasonTooLarge   = "Result is too large to compute."
)

// Field names reported in ValidationError.Field.
const (
	FieldPrincipal  = "principal"
	FieldRate       = "rate"
	FieldTerm       = "term"
	FieldFrequency  = "compoundingFrequency"
	FieldRatePeriod = "ratePeriod"
	FieldPaid       = "totalPaid"
)

// ValidationError rejects a calculation before any figure is computed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
