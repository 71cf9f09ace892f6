package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not-found"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

// Machine readable codes surfaced to clients.
const (
	CodeMissingFields        = "missing-fields"
	CodeValidationFailed     = "validation-failed"
	CodeInvalidRole          = "invalid-role"
	CodeDuplicateEmail       = "duplicate-email"
	CodeDuplicateUsername    = "duplicate-username"
	CodeUserNotFound         = "user-not-found"
	CodeInvalidPassword      = "invalid-password"
	CodeWrongCurrentPassword = "wrong-current-password"
	CodePasswordTooShort     = "password-too-short"
	CodeUnauthenticated      = "unauthenticated-access"
	CodeInvalidToken         = "invalid-token"
	CodeTokenExpired         = "token-expired"
	CodeForbidden            = "forbidden"
	CodeMalformedID          = "malformed-id"
	CodeNotFound             = "not-found"
	CodeServerError          = "server-error"
	CodeInvalidAvatar        = "invalid-avatar"
)

type AppError struct {
	Kind     Kind
	Code     string
	Message  string
	Details  string
	Required string
	Actual   string
	Err      error
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return fiber.StatusBadRequest
	case KindUnauthenticated:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func Validation(code, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message}
}

func Unauthenticated(code, details string) *AppError {
	return &AppError{Kind: KindUnauthenticated, Code: code, Message: "error", Details: details}
}

func Forbidden(required, actual string) *AppError {
	return &AppError{
		Kind:     KindForbidden,
		Code:     CodeForbidden,
		Message:  "Access denied",
		Details:  fmt.Sprintf("Required role: %s, User role: %s", required, actual),
		Required: required,
		Actual:   actual,
	}
}

func NotFound(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

// Internal hides err behind a generic message; only Details carries the cause.
func Internal(message string, err error) *AppError {
	e := &AppError{Kind: KindInternal, Code: CodeServerError, Message: message, Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
