// Package common defines sentinel errors shared by the store, service and
// transport layers. Callers match them with errors.Is.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("username or email already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("invalid credentials")
	ErrorForbidden    = errors.New("forbidden")

	// ErrorValidation marks malformed input. The transport rejects it before
	// a service is called; a service receiving it is a programming error.
	ErrorValidation = errors.New("validation error")

	// Token errors. Every verification failure collapses into this one.
	ErrInvalidToken = errors.New("invalid token")
)
