package shared

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError is returned for bad input or unknown references. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for one field
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// CalculationError means the household setup cannot produce a daily budget yet
type CalculationError struct {
	HouseholdID string
	Reason      string
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("cannot calculate daily budget for household %s: %s", e.HouseholdID, e.Reason)
}

// TransientStoreError wraps a failed store call that the caller may retry
type TransientStoreError struct {
	Operation  string
	OccurredAt time.Time
	RetryCount int
	Err        error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("store operation %s failed (retry %d): %v", e.Operation, e.RetryCount, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// NewTransientStoreError wraps err for operation, stamping the current time
func NewTransientStoreError(operation string, retryCount int, err error) *TransientStoreError {
	return &TransientStoreError{
		Operation:  operation,
		OccurredAt: time.Now().UTC(),
		RetryCount: retryCount,
		Err:        err,
	}
}

// IsValidation reports whether err carries a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsCalculation reports whether err carries a CalculationError
func IsCalculation(err error) bool {
	var target *CalculationError
	return errors.As(err, &target)
}

// IsTransient reports whether err carries a TransientStoreError
func IsTransient(err error) bool {
	var target *TransientStoreError
	return errors.As(err, &target)
}
