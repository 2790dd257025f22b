package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable reason codes surfaced to API clients.
const (
	CodeValidation        = "VALIDATION"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeProtectedRole     = "PROTECTED_ROLE"
	CodeRoleInUse         = "ROLE_IN_USE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL"
)

// Error is a domain error carrying a stable code and the HTTP status it maps to.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches by code so errors.Is(err, apperr.ErrForbidden) works for any
// Forbidden instance regardless of its message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Base errors usable directly or as errors.Is targets.
var (
	ErrValidation        = &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: "invalid input"}
	ErrForbidden         = &Error{Code: CodeForbidden, Status: http.StatusForbidden, Message: "not authorized"}
	ErrNotFound          = &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: "resource not found"}
	ErrProtectedRole     = &Error{Code: CodeProtectedRole, Status: http.StatusBadRequest, Message: "built-in role cannot be deleted"}
	ErrRoleInUse         = &Error{Code: CodeRoleInUse, Status: http.StatusConflict, Message: "role is still assigned to users"}
	ErrInvalidTransition = &Error{Code: CodeInvalidTransition, Status: http.StatusBadRequest, Message: "invalid state transition"}
	ErrConflict          = &Error{Code: CodeConflict, Status: http.StatusConflict, Message: "conflicting concurrent update"}
)

// Unauthorized returns an UNAUTHORIZED error for failed authentication.
func Unauthorized(msg string) error {
	return &Error{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: msg}
}

// Validation returns a VALIDATION error with a formatted message.
func Validation(format string, args ...interface{}) error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a NOT_FOUND error naming the missing entity.
func NotFound(entity string) error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: entity + " not found"}
}

// Forbidden returns the uniform authorization failure. The message is fixed so
// denials never disclose which permission was missing.
func Forbidden() error {
	return ErrForbidden
}

// InvalidTransition returns an INVALID_TRANSITION error with a formatted message.
func InvalidTransition(format string, args ...interface{}) error {
	return &Error{Code: CodeInvalidTransition, Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// From unwraps err into an *Error, falling back to a generic INTERNAL error so
// storage-layer failures are never surfaced verbatim.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "internal error"}
}
