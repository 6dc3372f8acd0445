package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError is the error shape every handler reports through gin's error list.
// Status drives the HTTP response, Message is what the client sees, Internal
// stays in the server log and is never serialized.
type APIError struct {
	Status   int    `json:"-"`
	Message  string `json:"error"`
	Internal error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.Internal
}

func newAPIError(status int, message string, internal error) *APIError {
	return &APIError{
		Status:   status,
		Message:  message,
		Internal: internal,
	}
}

func BadRequest(message string, internal error) *APIError {
	return newAPIError(http.StatusBadRequest, message, internal)
}

func Unauthorized(message string, internal error) *APIError {
	return newAPIError(http.StatusUnauthorized, message, internal)
}

func Forbidden(message string, internal error) *APIError {
	return newAPIError(http.StatusForbidden, message, internal)
}

func NotFound(message string, internal error) *APIError {
	return newAPIError(http.StatusNotFound, message, internal)
}

func Conflict(message string, internal error) *APIError {
	return newAPIError(http.StatusConflict, message, internal)
}

func UnprocessableEntity(message string, internal error) *APIError {
	return newAPIError(http.StatusUnprocessableEntity, message, internal)
}

func Internal(internal error) *APIError {
	return newAPIError(http.StatusInternalServerError, "Internal server error", internal)
}

// NewValidationError converts gin binding failures into a 422 with field
// detail. Non-validator errors (malformed JSON etc.) become a plain 422.
func NewValidationError(err error) *APIError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		}
		return UnprocessableEntity("Validation failed: "+strings.Join(details, ", "), err)
	}
	return UnprocessableEntity("Invalid request body", err)
}
