package engine

import (
	"errors"
	"fmt"
)

// DataError is a per-record problem promoted to a fatal error. Blank or
// missing source data never produces one; it is absorbed by defaults.
type DataError struct {
	// Code identifies the error category.
	Code DataErrorCode

	// Message is a human-readable description.
	Message string

	Transformation string
	OutputField    string

	// RecordKey is the natural key of the offending source record.
	RecordKey string

	// Err is the underlying cause, if any.
	Err error
}

// DataErrorCode categorizes data errors.
type DataErrorCode string

const (
	// ErrCodeNonNumeric indicates a non-blank, non-numeric arithmetic input
	// under strict numeric mode.
	ErrCodeNonNumeric DataErrorCode = "NON_NUMERIC"

	// ErrCodeSourceRead indicates the record iterator failed.
	ErrCodeSourceRead DataErrorCode = "SOURCE_READ"

	// ErrCodeUnknownProperty indicates a rule whose output field is not in
	// the schema the evaluator was built with.
	ErrCodeUnknownProperty DataErrorCode = "UNKNOWN_PROPERTY"

	// ErrCodeUnsupportedExpr indicates an expression variant the evaluator
	// does not know.
	ErrCodeUnsupportedExpr DataErrorCode = "UNSUPPORTED_EXPR"
)

// Error implements the error interface.
func (e *DataError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Transformation != "" {
		msg += fmt.Sprintf(" (transformation=%s", e.Transformation)
		if e.OutputField != "" {
			msg += ", field=" + e.OutputField
		}
		if e.RecordKey != "" {
			msg += ", record=" + e.RecordKey
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DataError) Unwrap() error {
	return e.Err
}

// IsDataError reports whether err is a DataError.
// Uses errors.As to handle wrapped errors.
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

// NewNonNumericError creates a DataError for an arithmetic input that is
// not a number.
func NewNonNumericError(transformation, field, recordKey string, value any) *DataError {
	return &DataError{
		Code:           ErrCodeNonNumeric,
		Message:        fmt.Sprintf("value %q is not numeric", fmt.Sprint(value)),
		Transformation: transformation,
		OutputField:    field,
		RecordKey:      recordKey,
	}
}
