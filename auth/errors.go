package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeHashing            = "HASHING_FAILED"
	TextCodeEncoding           = "TOKEN_ENCODING_FAILED"
	TextCodeInvalidToken       = "TOKEN_INVALID"
	TextCodeSessionExpired     = "SESSION_EXPIRED"
	TextCodeUnauthorized       = "UNAUTHORIZED"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeInvalidPolicy      = "INVALID_SESSION_POLICY"
)

// ErrHashing is returned when password hashing infrastructure fails.
// It is never a negative authentication result.
var ErrHashing = errors.New("password hashing failed", errors.CategoryInternal).
	WithCode(errors.CodeInternal).
	WithTextCode(TextCodeHashing)

// ErrEncoding is returned when session claims can not be serialized or signed
var ErrEncoding = errors.New("unable to encode session token", errors.CategoryInternal).
	WithCode(errors.CodeInternal).
	WithTextCode(TextCodeEncoding)

// ErrInvalidToken covers malformed tokens, algorithm mismatches and bad signatures
var ErrInvalidToken = errors.New("invalid session token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidToken)

// ErrSessionExpired is returned for authentic tokens past their validity window
var ErrSessionExpired = errors.New("session expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionExpired)

// ErrUnauthorized is the only failure the request boundary exposes.
var ErrUnauthorized = errors.New("Unauthorized", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrInvalidCredentials is returned for any failed login, whichever factor was wrong
var ErrInvalidCredentials = errors.New("Username and Password invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCredentials)

// ErrCredentialNotFound is returned by a CredentialStore when the username is unknown
var ErrCredentialNotFound = errors.New("credential not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("CREDENTIAL_NOT_FOUND")

// IsHashingError reports whether err is a hashing infrastructure failure
func IsHashingError(err error) bool {
	return hasTextCode(err, TextCodeHashing)
}

// IsEncodingError reports whether err is a token encoding failure
func IsEncodingError(err error) bool {
	return hasTextCode(err, TextCodeEncoding)
}

// IsInvalidToken reports whether err is a decode failure
func IsInvalidToken(err error) bool {
	return hasTextCode(err, TextCodeInvalidToken)
}

// IsSessionExpired reports whether err is an expired session
func IsSessionExpired(err error) bool {
	return hasTextCode(err, TextCodeSessionExpired)
}

// IsUnauthorized reports whether err is the collapsed boundary rejection
func IsUnauthorized(err error) bool {
	return hasTextCode(err, TextCodeUnauthorized)
}

// IsInvalidCredentials reports whether err is a failed login
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}

// IsCredentialNotFound reports whether a credential lookup missed
func IsCredentialNotFound(err error) bool {
	return hasTextCode(err, "CREDENTIAL_NOT_FOUND")
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}

	return richErr.TextCode == code
}

// wrapAs builds a fresh rich error shaped like kind and carrying cause.
// Sentinels are shared, so they are never mutated.
func wrapAs(kind *errors.Error, cause error) *errors.Error {
	if cause == nil {
		return kind
	}
	return errors.Wrap(cause, kind.Category, kind.Message).
		WithCode(kind.Code).
		WithTextCode(kind.TextCode)
}
