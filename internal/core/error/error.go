package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage is returned when a key does not exist.
	RedisNotFoundMessage = "record not found"
	// LLMErrorMessage describes a failed model call.
	LLMErrorMessage = "language model request failed"
	// LLMTimeoutMessage describes a model call that ran out of time.
	LLMTimeoutMessage = "language model request timed out"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrDeckNotFound        = errors.New("deck not found")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrEmptyResponse       = errors.New("empty model response")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// BadRequest marks err as a client error. The message is safe to echo back.
func BadRequest(err error, message string) *AppError {
	return New(err, http.StatusBadRequest, message)
}

// NotFound marks err as a missing resource.
func NotFound(err error, message string) *AppError {
	return New(err, http.StatusNotFound, message)
}

// WrapLLM maps a model call failure to a gateway status.
func WrapLLM(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(err, http.StatusGatewayTimeout, LLMTimeoutMessage)
	}
	return New(err, http.StatusBadGateway, LLMErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	if errors.Is(err, context.Canceled) {
		// nginx convention for a client that went away
		return 499
	}
	return http.StatusInternalServerError
}

// MessageOf returns a message that is safe to show to API clients.
// Client errors carry their detail, server errors only the safe message.
func MessageOf(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return SystemErrorMessage
	}
	if appErr.Status < http.StatusInternalServerError {
		return appErr.Error()
	}
	return appErr.Message
}
