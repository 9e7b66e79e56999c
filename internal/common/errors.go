package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Pipeline errors. Each one is terminal for the request that produced it.
var (
	ErrUnsupportedMediaType  = errors.New("unsupported media type")
	ErrDecode                = errors.New("could not decode upload")
	ErrUpstream              = errors.New("estimation service unavailable")
	ErrEstimationUnavailable = errors.New("the uploaded file may not be a valid assignment")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func NotFoundError(message string) error {
	return NewAppError("NOT_FOUND", message, ErrNotFound)
}

func ForbiddenError(message string) error {
	return NewAppError("FORBIDDEN", message, ErrForbidden)
}

func InvalidArgumentError(message string) error {
	return NewAppError("INVALID_ARGUMENT", message, ErrInvalidInput)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func UnauthorizedError(message string) error {
	return NewAppError("UNAUTHORIZED", message, ErrUnauthorized)
}

func InternalErrorf(format string, args ...interface{}) error {
	return NewAppError("INTERNAL", fmt.Sprintf(format, args...), ErrInternal)
}

// ErrorCode returns a stable machine-readable code for err.
func ErrorCode(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		return "UNSUPPORTED_MEDIA_TYPE"
	case errors.Is(err, ErrDecode):
		return "DECODE_ERROR"
	case errors.Is(err, ErrEstimationUnavailable):
		return "ESTIMATION_UNAVAILABLE"
	case errors.Is(err, ErrUpstream), errors.Is(err, context.DeadlineExceeded):
		return "UPSTREAM_ERROR"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return "INVALID_ARGUMENT"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps an error chain onto a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrDecode), errors.Is(err, ErrEstimationUnavailable),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var publicSentinels = []error{
	ErrUnsupportedMediaType, ErrDecode, ErrEstimationUnavailable, ErrNotFound, ErrForbidden,
	ErrUnauthorized, ErrInvalidInput, ErrValidation,
}

// PublicMessage is the text safe to show a caller. Client errors keep their detail;
// server-side failures collapse to the sentinel text.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out waiting for the estimation service"
	}
	if errors.Is(err, ErrUpstream) {
		return ErrUpstream.Error()
	}
	if !IsClientError(err) {
		return ErrInternal.Error()
	}
	var ae *AppError
	if errors.As(err, &ae) {
		for _, s := range publicSentinels {
			if ae.Cause == s && ae.Message != s.Error() {
				return s.Error() + ": " + ae.Message
			}
		}
		return ae.Message
	}
	for _, s := range publicSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}

// IsClientError reports whether err is the caller's fault rather than ours or the estimator's.
func IsClientError(err error) bool {
	s := HTTPStatus(err)
	return s >= 400 && s < 500
}
