// Package errors provides the sentinel error taxonomy for the pomoteam
// server. Handlers match these with errors.Is and map them to HTTP
// problem responses.
package errors

import (
	"errors"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("access denied")
	ErrUnauthorized       = errors.New("authentication required")
	ErrSessionFinished    = errors.New("session already finished")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)
