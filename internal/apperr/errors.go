// Package apperr holds the error taxonomy shared by the stores, the
// checkout engine and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

// InsufficientStockError names the medicine whose live stock cannot cover
// the requested quantity.
type InsufficientStockError struct {
	MedicineID int64
	Name       string
	Available  int
	Requested  int
}

func (e *InsufficientStockError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("medicine %d", e.MedicineID)
	}
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// NotFound returns an error matching ErrNotFound with a readable subject,
// e.g. NotFound("medicine") reads "medicine not found".
func NotFound(subject string) error {
	return &subjectError{msg: subject + " not found", kind: ErrNotFound}
}

// Validation returns an error matching ErrValidation carrying msg verbatim.
func Validation(msg string) error {
	return &subjectError{msg: msg, kind: ErrValidation}
}

// Conflict returns an error matching ErrConflict carrying msg verbatim.
func Conflict(msg string) error {
	return &subjectError{msg: msg, kind: ErrConflict}
}

// InvalidStatus returns an error matching ErrInvalidStatus carrying msg verbatim.
func InvalidStatus(msg string) error {
	return &subjectError{msg: msg, kind: ErrInvalidStatus}
}

type subjectError struct {
	msg  string
	kind error
}

func (e *subjectError) Error() string { return e.msg }
func (e *subjectError) Unwrap() error { return e.kind }
