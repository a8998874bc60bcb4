// Package common defines shared constants and sentinel errors used across
// the server, client and CLI layers. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound  = errors.New("not found")
	ErrorDuplicate = errors.New("already exists")

	// Service-level errors.
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Credential errors.
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorAccountLocked      = errors.New("account locked")
	ErrorDecryptionFailed   = errors.New("decryption failed")

	// Remote data service errors.
	ErrorRemoteUnavailable = errors.New("remote service unavailable")

	// Token errors.
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrorValidation }

// CredentialsError is returned when password verification fails.
// AttemptsRemaining is the number of failures left before lockout.
type CredentialsError struct {
	AttemptsRemaining int
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.AttemptsRemaining)
}

func (e *CredentialsError) Unwrap() error { return ErrorInvalidCredentials }

// LockedError is returned while a (server, ip) pair is locked out.
type LockedError struct {
	MinutesRemaining int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", e.MinutesRemaining)
}

func (e *LockedError) Unwrap() error { return ErrorAccountLocked }
