// Package common defines shared constants and sentinel errors used across
// the server, transports and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Account errors.
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrEmailTaken      = errors.New("email already registered")

	// Token codec errors.
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")

	// Refresh token lifecycle errors.
	ErrTokenNotFound   = errors.New("refresh token not found")
	ErrTokenMismatched = errors.New("refresh token mismatched")

	// Identity resolution errors.
	ErrMissingCredentialHeader = errors.New("missing credential header")
	ErrInvalidToken            = errors.New("invalid token")
)
