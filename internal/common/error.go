// Package common defines shared constants and sentinel errors used across
// client and server layers of gophnotes. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrUnauthenticated = errors.New("unauthenticated")

	// Validation errors.
	ErrValidation     = errors.New("validation error")
	ErrWeakCredential = errors.New("password does not satisfy the password policy")
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// Credential check failure; the same value for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
	ErrRevoked      = errors.New("token has been revoked")
)
