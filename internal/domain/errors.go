package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConsistency = errors.New("ledger inconsistency")
	ErrPersistence = errors.New("persistence failure")

	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrInvalidQuantity       = errors.New("quantity must be greater than zero")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrUnbalancedEntry       = errors.New("debits and credits do not balance")
	ErrHasDependents         = errors.New("record has dependent transactions")
	ErrReturnExceedsOriginal = errors.New("return exceeds original transaction")
	ErrInactive              = errors.New("record is inactive")
	ErrInvalidAccount        = errors.New("account cannot be used here")
	ErrInvalidPricingUnit    = errors.New("invalid pricing unit")
)

// ValidationError is a business-rule violation detected before any mutation
// is committed.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrValidation, e.Cause}
	}
	return []error{ErrValidation}
}

func NewValidationError(cause error, format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ConsistencyError means the ledger does not hold what a record claims it
// owns, e.g. a reversal found no journal entries for the record's ref.
type ConsistencyError struct {
	Ref    string
	Reason string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("ledger inconsistency for %s: %s", e.Ref, e.Reason)
}

func (e *ConsistencyError) Unwrap() error {
	return ErrConsistency
}

type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %v", e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// Classify returns err unchanged when it already belongs to the error
// taxonomy and wraps it as a PersistenceError otherwise.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConsistency) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Err: err}
}
