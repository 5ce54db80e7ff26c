// Package common defines shared constants and sentinel errors used across
// DealKeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound           = errors.New("not found")
	ErrorDuplicateUsername  = errors.New("username already exists")
	ErrorStorageUnavailable = errors.New("storage unavailable")

	// Service-level errors (generic flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Credential errors. Unknown user and wrong password both map to
	// ErrorInvalidCredentials so that callers cannot probe for usernames.
	ErrorInvalidCredentials = errors.New("invalid credentials")

	// Token errors. The authorization gate collapses both into an
	// anonymous request; they are never surfaced to API clients.
	ErrTokenMalformed        = errors.New("malformed token")
	ErrTokenSignatureInvalid = errors.New("invalid token signature")

	// Redemption errors.
	ErrorDealNotFound    = errors.New("deal not found")
	ErrorRedemptionLimit = errors.New("redemption limit reached")
)
