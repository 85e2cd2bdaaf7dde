package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoChoices is returned when a completion carries an empty choices array.
var ErrNoChoices = errors.New("completion response has no choices")

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx reply from the completion service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("completion request failed: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("completion request failed with status %d", e.StatusCode)
}

// AuthError is an APIError whose status shows the key was rejected.
type AuthError struct {
	APIError
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.APIError.Error()
}

func (e *AuthError) Unwrap() error {
	return &e.APIError
}

// ParseError means the service answered 2xx with a body that could not be decoded.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func statusError(status int, message string) error {
	apiErr := APIError{StatusCode: status, Message: message}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthError{APIError: apiErr}
	}
	return &apiErr
}
