// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import "errors"

// Sentinel errors - authentication and authorization
var (
	ErrUnauthorized = errors.New("not authenticated")
	ErrForbidden    = errors.New("not allowed")
)

// Sentinel errors - input and state
var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidTransition = errors.New("invalid exchange transition")
)
