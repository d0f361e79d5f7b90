package controller

import (
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// ErrorBody is the JSON shape of every error answer
type ErrorBody struct {
	Message string              `json:"message"`
	Errors  []errors.FieldError `json:"errors,omitempty"`
}

// StatusFor maps a rich error to its HTTP status. Errors without a code
// fall back to their category, anything else is a 500.
func StatusFor(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	if richErr.Code >= 400 && richErr.Code < 600 {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ErrorResponse writes err as {"message": ...}. Server side failures are
// logged and answered with a generic message.
func (c *Controller) ErrorResponse(ctx router.Context, err error) error {
	status := StatusFor(err)

	if status >= http.StatusInternalServerError {
		c.Logger.Error("request failed", "status", status, "error", err)
		return ctx.JSON(status, ErrorBody{Message: http.StatusText(status)})
	}

	body := ErrorBody{Message: err.Error()}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		body.Message = richErr.Message
		body.Errors = richErr.ValidationErrors
	}

	return ctx.JSON(status, body)
}
