// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrValidation indicates a missing or empty required field.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail indicates an account with the same normalized email exists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials indicates a failed login (unknown email or wrong password).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates a well-formed bearer token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrUnknownUser indicates a user id that does not resolve to an account.
	ErrUnknownUser = errors.New("unknown user")

	// ErrUnknownCategory indicates a condition category outside the supported set.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrVersionConflict indicates optimistic concurrency failure (base version mismatch).
	ErrVersionConflict = errors.New("version conflict")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
