package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the ledger and its backends unwraps to
// exactly one of these.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("transaction not found")
	ErrPersistence = errors.New("persistence failure")
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrUnknownCategory  = errors.New("category not valid for type")
)

// ValidationError rejects a candidate transaction before anything is mutated.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// NotFoundError is returned by Edit and Delete for ids absent from the
// snapshot. UID is set instead of ID when the lookup was by surrogate key.
type NotFoundError struct {
	ID  int
	UID string
}

func (e *NotFoundError) Error() string {
	if e.UID != "" {
		return fmt.Sprintf("transaction %s not found", e.UID)
	}
	return fmt.Sprintf("transaction %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// PersistenceError wraps a read or write failure of the backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s ledger: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
