package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// ProviderErrorMessage describes an external data provider failure.
	ProviderErrorMessage = "provider request failed"
	// InferenceErrorMessage describes a model inference transport failure.
	InferenceErrorMessage = "inference request failed"
)

// Sentinels for the failure kinds the pipeline distinguishes. Callers match
// with errors.Is and decide their own degradation behaviour.
var (
	// ErrProviderUnavailable marks a data source that is not configured or
	// not reachable. Fusion records the sub-step as skipped.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrMalformedOutput marks model output that arrived but could not be
	// parsed into the requested structure. Distinct from a transport failure.
	ErrMalformedOutput = errors.New("malformed model output")
)

// Error wraps an underlying error with a status code and safe message.
type Error struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, status int, message string) *Error {
	return &Error{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapProvider wraps an external provider failure.
func WrapProvider(err error) *Error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, ProviderErrorMessage)
}

// WrapInference wraps an inference transport failure.
func WrapInference(err error) *Error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, InferenceErrorMessage)
}

// IsNotFound reports whether err carries a 404 status.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// Is reports whether the target matches the underlying error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to Error or the wrapped error in a chain.
func (e *Error) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}
	return false
}
