package spotify

import (
	"errors"
	"fmt"
)

// Predefined errors for common cases.
var (
	// ErrInvalidConfig is returned when client or authorizer configuration is invalid.
	ErrInvalidConfig = errors.New("spotify: invalid configuration")

	// ErrRetriesExhausted is returned once every attempt of a request has failed.
	// An export cannot continue past this point.
	ErrRetriesExhausted = errors.New("spotify: retries exhausted")
)

// StatusError is a non-2xx response from the API.
type StatusError struct {
	StatusCode int
	Body       string // First bytes of the response body
}

// Error returns the error message.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("spotify: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("spotify: unexpected status %d: %s", e.StatusCode, e.Body)
}

// FetchError reports a request that failed on every attempt.
//
// It unwraps to both ErrRetriesExhausted and the error from the last
// attempt, so errors.Is and errors.As work against either.
type FetchError struct {
	URL      string
	Attempts int
	Err      error // Error from the final attempt
}

// Error returns the error message.
func (e *FetchError) Error() string {
	return fmt.Sprintf("spotify: GET %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

// Unwrap exposes the sentinel and the last attempt's error.
func (e *FetchError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Err}
}

// AuthError is returned when the identity provider redirects back
// without an access token.
type AuthError struct {
	Code        string // Value of the "error" query parameter, e.g. "access_denied"
	Description string
}

// Error returns the error message.
func (e *AuthError) Error() string {
	if e.Code == "" {
		return "spotify: authorization failed: no access token in callback"
	}
	if e.Description != "" {
		return fmt.Sprintf("spotify: authorization failed: %s (%s)", e.Code, e.Description)
	}
	return fmt.Sprintf("spotify: authorization failed: %s", e.Code)
}
