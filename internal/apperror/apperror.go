package apperror

import (
	"errors"
	"fmt"
)

// Error codes surfaced to clients.
const (
	CodeQuotaExceeded     = "QUOTA_EXCEEDED"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeEnhancementFailed = "ENHANCEMENT_FAILED"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeUnauthorized      = "UNAUTHORIZED"
)

// AppError is the typed error the HTTP layer knows how to render.
type AppError struct {
	Code    string
	Status  int
	Message string
	Meta    map[string]interface{}
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// As extracts an *AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// QuotaExceeded is non-retryable until the next UTC day.
func QuotaExceeded() *AppError {
	return &AppError{
		Code:    CodeQuotaExceeded,
		Status:  429,
		Message: "daily enhancement quota exceeded",
		Meta: map[string]interface{}{
			"remaining":   0,
			"retry_after": "tomorrow",
		},
	}
}

// SessionNotFound covers both missing and not-owned sessions so that session
// existence never leaks across identities.
func SessionNotFound() *AppError {
	return &AppError{
		Code:    CodeSessionNotFound,
		Status:  404,
		Message: "session not found",
	}
}

func EnhancementFailed(cause error) *AppError {
	return &AppError{
		Code:    CodeEnhancementFailed,
		Status:  502,
		Message: "enhancement service failed",
		cause:   cause,
	}
}

func Validation(message string) *AppError {
	return &AppError{
		Code:    CodeValidationFailed,
		Status:  400,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Status:  401,
		Message: message,
	}
}
