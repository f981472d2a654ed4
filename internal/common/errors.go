// Package common defines shared constants and sentinel errors used across
// branchkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorPersistence   = errors.New("persistence failure")
	ErrorAlreadyExists = errors.New("already exists")

	// Authorization errors.
	ErrorForbidden    = errors.New("forbidden")
	ErrorUnauthorized = errors.New("unauthorized")

	// Structural errors raised by the hierarchy engine.
	ErrorInvalidParentType = errors.New("invalid parent type")
	ErrorInvalidOperation  = errors.New("invalid operation")

	// ErrorPartialFailure marks best-effort fan-out operations (recursive
	// delete, rebase) where some siblings failed. The wrapped error lists them.
	ErrorPartialFailure = errors.New("partial failure")

	// Validation errors for payloads.
	ErrorValidation = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
