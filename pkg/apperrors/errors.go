package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the single error type crossing service boundaries. Every expected
// failure carries a stable machine code and the HTTP status it maps to at the
// edge. Comparison is by code, so errors.Is(err, ErrInvalidToken) matches any
// instance regardless of message or details.
type Error struct {
	Code    string         `json:"error_code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy with a more specific message, same code.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Status: e.Status, Details: e.Details}
}

// WithDetails returns a copy carrying extra detail fields for the error body.
func (e *Error) WithDetails(details map[string]any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Status: e.Status, Details: details}
}

var (
	ErrInvalidCredentials = &Error{Code: "INVALID_CREDENTIALS", Message: "invalid email or password", Status: http.StatusUnauthorized}
	ErrInvalidToken       = &Error{Code: "INVALID_TOKEN", Message: "invalid or expired token", Status: http.StatusUnauthorized}
	ErrTokenExpired       = &Error{Code: "TOKEN_EXPIRED", Message: "token has expired", Status: http.StatusUnauthorized}
	ErrMissingToken       = &Error{Code: "MISSING_TOKEN", Message: "authorization token is required", Status: http.StatusUnauthorized}
	ErrInactiveUser       = &Error{Code: "INACTIVE_USER", Message: "user account is inactive", Status: http.StatusUnauthorized}
	ErrAlreadyExists      = &Error{Code: "ALREADY_EXISTS", Message: "resource already exists", Status: http.StatusConflict}
	ErrNotFound           = &Error{Code: "NOT_FOUND", Message: "resource not found", Status: http.StatusNotFound}
	ErrDatabase           = &Error{Code: "DATABASE_ERROR", Message: "database operation failed", Status: http.StatusInternalServerError}
	ErrValidation         = &Error{Code: "VALIDATION_ERROR", Message: "validation failed", Status: http.StatusUnprocessableEntity}
	ErrForbidden          = &Error{Code: "INSUFFICIENT_PERMISSIONS", Message: "you don't have permission to perform this action", Status: http.StatusForbidden}
)

// From extracts the *Error from err, or wraps it as a generic internal error
// so nothing unclassified leaks to the network boundary.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: "INTERNAL_ERROR", Message: "internal server error", Status: http.StatusInternalServerError}
}
