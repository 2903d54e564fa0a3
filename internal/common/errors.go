// Package common defines shared constants and sentinel errors used across
// the server and scanner station layers of rollcall. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorForbidden     = errors.New("forbidden")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrInvalidArgument = errors.New("invalid argument")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
