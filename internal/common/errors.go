// Package common defines shared constants and sentinel errors used across
// SecretWall components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already taken")

	// Authentication errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProviderAssertion  = errors.New("provider assertion rejected")

	// ErrUnauthorized is the uniform outcome the gateway folds every
	// verification failure into, so callers cannot distinguish a missing
	// account from a wrong password.
	ErrUnauthorized = errors.New("unauthorized")

	// Session errors. A missing or expired session is not a failure:
	// the request is simply anonymous.
	ErrSessionNotFound = errors.New("session not found")

	ErrInternal = errors.New("internal error")
)
