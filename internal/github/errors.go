package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

var (
	// ErrNotModified is returned for a 304 to a conditional GET. The
	// caller's cached state is still current.
	ErrNotModified = errors.New("github: not modified")

	// ErrUnauthorized matches (via errors.Is) any *APIError with status 401.
	ErrUnauthorized = errors.New("github: unauthorized")
)

// maxSnippet bounds how much of a response body ends up in errors and logs.
const maxSnippet = 512

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	StatusCode int
	Method     string
	URL        string

	// Message is GitHub's "message" field when the body is JSON.
	Message string

	// Body is a bounded snippet of the raw response body.
	Body string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("github: %s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, msg)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Transient reports whether the request is worth retrying.
func (e *APIError) Transient() bool {
	return isTransientStatus(e.StatusCode)
}

// IsTransient reports whether err is a retryable API error.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Transient()
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func newAPIError(method, url string, status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Method:     method,
		URL:        url,
		Body:       snippet(body),
	}
	var wire struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wire) == nil {
		apiErr.Message = wire.Message
	}
	return apiErr
}

func snippet(body []byte) string {
	if len(body) <= maxSnippet {
		return string(body)
	}
	cut := body[:maxSnippet]
	for len(cut) > 0 && !utf8.Valid(cut) {
		cut = cut[:len(cut)-1]
	}
	return string(cut) + "..."
}
