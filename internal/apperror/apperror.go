// Package apperror defines the sentinel errors shared across stores and
// handlers. Handlers match with errors.Is and map each to an HTTP status.
package apperror

import "errors"

var (
	// ErrDuplicateEmail is returned by signup when the email is taken. 400.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown-email and wrong-password
	// login failures so the two are indistinguishable to a caller. 401.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrForbidden is returned when the actor lacks the required role. 403.
	ErrForbidden = errors.New("forbidden")

	// ErrCodeNotFound is returned when no reward code matches. 404.
	ErrCodeNotFound = errors.New("reward code not found")

	// ErrAlreadyRedeemed is returned when a code has a redeemer set. 400.
	ErrAlreadyRedeemed = errors.New("reward code already redeemed")
)
