package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrValidation    = errors.New("validation failed")
	ErrLedger        = errors.New("ledger rejected transaction")
	ErrAuthorization = errors.New("not authorized")
	ErrSigning       = errors.New("signing failed")
	ErrNotFound      = errors.New("not found")
)

// ValidationError reports malformed input. It is always raised before any I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid is shorthand for building a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// LedgerError carries the ledger's revert reason for a rejected write, or the
// transport failure that prevented the ledger from answering.
type LedgerError struct {
	Op     string
	TxHash string
	Reason string
	Err    error
}

func (e *LedgerError) Error() string {
	var b strings.Builder
	b.WriteString("ledger: ")
	b.WriteString(e.Op)
	if e.TxHash != "" {
		b.WriteString(" (tx ")
		b.WriteString(e.TxHash)
		b.WriteString(")")
	}
	if e.Reason != "" {
		b.WriteString(": reverted: ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LedgerError) Is(target error) bool { return target == ErrLedger }
func (e *LedgerError) Unwrap() error        { return e.Err }

// AuthorizationError means the caller is not the application's manager. It is
// derived from a LedgerError whose reason names an authorization failure.
type AuthorizationError struct {
	Op     string
	AppID  uint64
	Reason string
	Err    error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization: %s on app %d: %s", e.Op, e.AppID, e.Reason)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrAuthorization }
func (e *AuthorizationError) Unwrap() error        { return e.Err }

// SigningError wraps a failure of the delegated signing capability.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return "signing: " + e.Err.Error() }

func (e *SigningError) Is(target error) bool { return target == ErrSigning }
func (e *SigningError) Unwrap() error        { return e.Err }

// NotFoundError reports that a requested item does not exist.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return e.What + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
