package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when a request carries no credential.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidCredential covers malformed, expired and tampered tokens.
	ErrInvalidCredential = errors.New("invalid token")
	// ErrInvalidLogin is returned for an unknown email or a wrong password.
	ErrInvalidLogin = errors.New("invalid email or password")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	// ErrNoFields is returned by partial updates that carry nothing to change.
	ErrNoFields       = errors.New("no fields to update")
	ErrValidation     = errors.New("validation failed")
	ErrDuplicateEmail = errors.New("email already exists")

	ErrSelfRental     = errors.New("cannot rent own book")
	ErrAlreadyRented  = errors.New("book is already rented")
	ErrNoActiveRental = errors.New("no active rental found for this book")
)

// Invalid wraps ErrValidation with a caller facing message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsConflict reports whether err is a state conflict the caller can resolve
// by changing the request.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSelfRental) ||
		errors.Is(err, ErrAlreadyRented) ||
		errors.Is(err, ErrNoActiveRental) ||
		errors.Is(err, ErrDuplicateEmail)
}
