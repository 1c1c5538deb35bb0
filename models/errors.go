package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies request failures the way callers are expected to
// react to them: fix the request, retry later, or give up.
type ErrorCode string

const (
	CodeUnauthenticated    ErrorCode = "unauthenticated"
	CodeInvalidArgument    ErrorCode = "invalid-argument"
	CodePermissionDenied   ErrorCode = "permission-denied"
	CodeFailedPrecondition ErrorCode = "failed-precondition"
	CodeNotFound           ErrorCode = "not-found"
	CodeResourceExhausted  ErrorCode = "resource-exhausted"
	CodeUnavailable        ErrorCode = "unavailable"
	CodeInternal           ErrorCode = "internal"
	CodeUnknown            ErrorCode = "unknown"
)

// AppError carries a stable code alongside a caller-facing message.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds an AppError with a formatted message.
func NewError(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsAppError unwraps err into an AppError, defaulting to CodeUnknown.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: CodeUnknown, Message: err.Error()}
}

// HTTPStatus maps an error code to its HTTP response status.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case CodeNotFound:
		return http.StatusNotFound
	case CodeResourceExhausted:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
