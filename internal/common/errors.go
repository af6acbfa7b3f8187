package common

import (
	"errors"
	"fmt"
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

// Outcome taxonomy. Every error this module surfaces matches exactly one of
// these via errors.Is, so callers can branch without string inspection.
var (
	ErrConfiguration       = errors.New("configuration error")
	ErrTransport           = errors.New("transport error")
	ErrProvider            = errors.New("provider error")
	ErrPredictionFailed    = errors.New("prediction failed")
	ErrPollTimeout         = errors.New("poll timeout")
	ErrUnprocessableOutput = errors.New("unprocessable output")
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
