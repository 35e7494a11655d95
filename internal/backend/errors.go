package backend

import (
	"errors"
	"fmt"
)

// AuthRequiredError reports a 401/403 from the backend. The caller must
// abandon whatever it was doing and send the user to Redirect.
type AuthRequiredError struct {
	// Redirect is the login location the backend asked for, or the
	// default login path when the body carried none.
	Redirect string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("authentication required, redirect to %s", e.Redirect)
}

// RequestError reports a non-2xx, non-auth response from the backend.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsAuthRequired reports whether err is an authentication failure and, if
// so, returns the redirect target.
func IsAuthRequired(err error) (string, bool) {
	var authErr *AuthRequiredError
	if errors.As(err, &authErr) {
		return authErr.Redirect, true
	}
	return "", false
}

// UserMessage extracts a message suitable for an inline notification. Auth
// errors never reach this path; they redirect instead.
func UserMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return "API request failed"
}
