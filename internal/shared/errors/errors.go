package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeConflict         ErrorType = "conflict"
	ErrorTypeUnauthorized     ErrorType = "unauthorized"
	ErrorTypeForbidden        ErrorType = "forbidden"
	ErrorTypeRateLimited      ErrorType = "rate_limited"
	ErrorTypeMethodNotAllowed ErrorType = "method_not_allowed"
	ErrorTypeInternal         ErrorType = "internal"
	// ErrorTypeExternal covers backing services and colony capacity.
	ErrorTypeExternal ErrorType = "external"
)

var statusCodes = map[ErrorType]int{
	ErrorTypeNotFound:         http.StatusNotFound,
	ErrorTypeValidation:       http.StatusBadRequest,
	ErrorTypeConflict:         http.StatusConflict,
	ErrorTypeUnauthorized:     http.StatusUnauthorized,
	ErrorTypeForbidden:        http.StatusForbidden,
	ErrorTypeRateLimited:      http.StatusTooManyRequests,
	ErrorTypeMethodNotAllowed: http.StatusMethodNotAllowed,
	ErrorTypeExternal:         http.StatusServiceUnavailable,
	ErrorTypeInternal:         http.StatusInternalServerError,
}

// StatusCode is the HTTP status sent for errors of this type.
func (t ErrorType) StatusCode() int {
	if code, ok := statusCodes[t]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// AppError is the base error type for application errors. RetryAfter is
// only meaningful for rate limited errors.
type AppError struct {
	Type       ErrorType
	Message    string
	Err        error
	RetryAfter time.Duration
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(t ErrorType, message string) error {
	return &AppError{Type: t, Message: message}
}

func Wrap(t ErrorType, message string, err error) error {
	return &AppError{Type: t, Message: message, Err: err}
}

func NotFound(message string) error {
	return New(ErrorTypeNotFound, message)
}

func Validation(message string) error {
	return New(ErrorTypeValidation, message)
}

func Validationf(format string, args ...interface{}) error {
	return New(ErrorTypeValidation, fmt.Sprintf(format, args...))
}

func WrapValidation(message string, err error) error {
	return Wrap(ErrorTypeValidation, message, err)
}

func WrapConflict(message string, err error) error {
	return Wrap(ErrorTypeConflict, message, err)
}

func WrapInternal(message string, err error) error {
	return Wrap(ErrorTypeInternal, message, err)
}

func Unauthorized(message string) error {
	return New(ErrorTypeUnauthorized, message)
}

func Forbidden(message string) error {
	return New(ErrorTypeForbidden, message)
}

// RateLimited asks the client to retry after the given delay. A zero delay
// is sent as one second.
func RateLimited(message string, retryAfter time.Duration) error {
	return &AppError{Type: ErrorTypeRateLimited, Message: message, RetryAfter: retryAfter}
}

func WrapRateLimited(message string, err error, retryAfter time.Duration) error {
	return &AppError{Type: ErrorTypeRateLimited, Message: message, Err: err, RetryAfter: retryAfter}
}

func MethodNotAllowed(method string) error {
	return New(ErrorTypeMethodNotAllowed, fmt.Sprintf("method %s not allowed", method))
}

func WrapExternal(message string, err error) error {
	return Wrap(ErrorTypeExternal, message, err)
}

// GetType returns the error type of an error
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// RetryAfter returns the delay carried by a rate limited error, or zero.
func RetryAfter(err error) time.Duration {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.RetryAfter
	}
	return 0
}
