package fetcher

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error that occurred during a fetch operation
type ErrorType string

const (
	// ErrorTypeProvider indicates a network or provider-side failure (connection refused, 5xx, etc.)
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeAuth indicates a missing or rejected API credential (HTTP 401/403)
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeNotFound indicates the product is unknown to the provider (HTTP 404)
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation indicates the response was received but failed schema validation
	ErrorTypeValidation ErrorType = "validation"
)

// FetchError represents a structured error from a fetch operation
type FetchError struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a provider error from an underlying cause
func NewProviderError(cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeProvider,
		Message: "provider request failed",
		Cause:   cause,
	}
}

// NewAuthError creates an auth error
func NewAuthError(statusCode int) *FetchError {
	return &FetchError{
		Type:       ErrorTypeAuth,
		StatusCode: statusCode,
		Message:    "provider rejected the API credential",
	}
}

// NewNotFoundError creates a not-found error for a product
func NewNotFoundError(productID string) *FetchError {
	return &FetchError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("product %q not available", productID),
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *FetchError {
	return &FetchError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// ClassifyHTTPError classifies a non-2xx HTTP status into the local taxonomy
func ClassifyHTTPError(statusCode int, productID string) *FetchError {
	switch {
	case statusCode == 401 || statusCode == 403:
		return NewAuthError(statusCode)
	case statusCode == 404:
		e := NewNotFoundError(productID)
		e.StatusCode = statusCode
		return e
	default:
		return &FetchError{
			Type:       ErrorTypeProvider,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("provider returned status %d", statusCode),
		}
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeProvider when err is not
// a FetchError (any unclassified failure counts as a provider failure).
func TypeOf(err error) ErrorType {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Type
	}
	return ErrorTypeProvider
}

// IsNotFound reports whether err is a not-found fetch error
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Type == ErrorTypeNotFound
}

// IsAuth reports whether err is an auth fetch error
func IsAuth(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Type == ErrorTypeAuth
}
