package account

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeMissingFields   = "MISSING_REQUIRED_FIELDS"
	TextCodeUsernameTaken   = "USERNAME_TAKEN"
	TextCodeEmailTaken      = "EMAIL_TAKEN"
	TextCodeInvalidEmail    = "INVALID_EMAIL"
	TextCodeInvalidPassword = "INVALID_PASSWORD"
	TextCodeInvalidFone     = "INVALID_FONE"
	TextCodeWrongPassword   = "CURRENT_PASSWORD_INVALID"
	TextCodeUserNotFound    = "USER_NOT_FOUND"
)

// Signup and profile failures all answer 400, the message is what the
// client shows.
var (
	ErrUsernameTaken = validationError("Username already exists", TextCodeUsernameTaken)
	ErrEmailTaken    = validationError("Email already exists", TextCodeEmailTaken)
	ErrInvalidEmail  = validationError("Email is not valid", TextCodeInvalidEmail)
	ErrInvalidPass   = validationError("Password is not valid", TextCodeInvalidPassword)
	ErrInvalidFone   = validationError("Fone is not valid", TextCodeInvalidFone)
	ErrWrongPassword = validationError("Current password is not valid", TextCodeWrongPassword)
)

// ErrUserNotFound is returned when the identity no longer has an account
var ErrUserNotFound = errors.New("User not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeUserNotFound)

// MissingFieldError reports the first required field that was empty
func MissingFieldError(field string) *errors.Error {
	return validationError("Missing required fields: "+field, TextCodeMissingFields).
		WithMetadata(map[string]any{"field": field})
}

// HasTextCode reports whether err is a rich error with code
func HasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

func validationError(msg, code string) *errors.Error {
	return errors.New(msg, errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithTextCode(code)
}
