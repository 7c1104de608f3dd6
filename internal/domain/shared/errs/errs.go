// Package errs defines the error kinds shared by every layer. Domain and
// storage errors wrap one of the kinds with %w so callers classify them with
// errors.Is instead of matching messages.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input. The caller must correct it.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced listing, booking or user that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an authorization failure.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict marks a state-machine or availability violation. The caller
	// may re-fetch and retry with updated assumptions.
	ErrConflict = errors.New("conflict")
	// ErrStorage marks an unavailable durability layer.
	ErrStorage = errors.New("storage failure")
)

// Conflict reasons.
var (
	ErrNotAvailable      = fmt.Errorf("%w: listing is not available", ErrConflict)
	ErrDuplicatePending  = fmt.Errorf("%w: renter already has a pending booking for this listing", ErrConflict)
	ErrInvalidTransition = fmt.Errorf("%w: invalid booking status transition", ErrConflict)
	ErrConcurrentUpdate  = fmt.Errorf("%w: concurrent update detected", ErrConflict)
)

// Validation wraps msg as a validation error.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Storage wraps a driver failure as ErrStorage unless it already carries a kind.
func Storage(err error) error {
	if err == nil || Classified(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// Classified reports whether err already wraps one of the error kinds.
func Classified(err error) bool {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrConflict, ErrStorage} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Kind returns the kind sentinel wrapped by err, or nil when err is unclassified.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrConflict, ErrStorage} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
