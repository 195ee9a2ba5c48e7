// Package services defines the business logic for account linking, the
// product catalog, the entitlement ledger, delivery, and the downtime flag.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Every error carries one of the kind sentinels below. Callers branch on the
// kind with errors.Is and translate it into a status code or a chat reply at
// the handler/command layer; the message text is safe to show to users.
package services

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a uniqueness violation.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks an unknown code, product, or link.
	ErrNotFound = errors.New("not found")

	// ErrNotLinked marks an operation on a game account without a chat link.
	ErrNotLinked = errors.New("account not linked")

	// ErrDelivery marks a failed payload transmission. Ownership is kept.
	ErrDelivery = errors.New("delivery failed")

	// ErrUpstream marks a failed call to the game backend.
	ErrUpstream = errors.New("upstream failed")
)

// kindErr is a user-facing message tagged with an error kind.
type kindErr struct {
	kind error
	msg  string
}

func (e *kindErr) Error() string { return e.msg }
func (e *kindErr) Unwrap() error { return e.kind }

func newKindErr(kind error, msg string) error { return &kindErr{kind: kind, msg: msg} }

// Invalidf builds an ErrValidation error with a formatted message.
func Invalidf(format string, args ...any) error {
	return newKindErr(ErrValidation, fmt.Sprintf(format, args...))
}

// wrapKind tags err with kind while keeping err in the chain.
func wrapKind(kind error, msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", kind, msg, err)
}

// Specific errors.
var (
	ErrCodeNotFound     = newKindErr(ErrNotFound, "code not found or expired")
	ErrLinkNotFound     = newKindErr(ErrNotFound, "account is not linked")
	ErrProductNotFound  = newKindErr(ErrNotFound, "product not found")
	ErrDuplicateProduct = newKindErr(ErrConflict, "a product with this devProductId already exists")
	ErrUnknownHub       = newKindErr(ErrValidation, "unknown hub")
	ErrUnknownField     = newKindErr(ErrValidation, "unknown product field")
	ErrNoLink           = newKindErr(ErrNotLinked, "game account has no linked chat account")
)

// Kind returns the kind sentinel carried by err, or nil for untyped errors.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrNotLinked, ErrDelivery, ErrUpstream} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
