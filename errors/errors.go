package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common error types for categorization and handling

var (
	// ErrCapacityReached indicates every workspace slot holds a busy workspace
	ErrCapacityReached = errors.New("workspace capacity reached")

	// ErrServiceUnavailable indicates the question-answering service is unavailable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrMalformedResponse indicates the service answered with a body we could not use
	ErrMalformedResponse = errors.New("malformed response")
)

// Operations performed against the question-answering service.
const (
	OpUpload = "upload"
	OpQuery  = "query"
)

// APIError carries the HTTP outcome of a non-2xx backend response.
type APIError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	msg := fmt.Sprintf("%s failed: %s", capitalize(e.Op), status)
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

// Unwrap lets callers match 5xx responses against ErrServiceUnavailable.
func (e *APIError) Unwrap() error {
	if e.StatusCode >= http.StatusInternalServerError {
		return ErrServiceUnavailable
	}
	return nil
}

// Kind is the failure category a user-facing notice is chosen from.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransient
	KindBadInput
	KindSessionNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindBadInput:
		return "bad_input"
	case KindSessionNotFound:
		return "session_not_found"
	default:
		return "unknown"
	}
}

// Classify maps err onto a Kind using the structured status code only.
// A 404 means "session not found" for queries; for uploads it is bad input
// like any other 4xx. Errors without a status code are KindUnknown.
func Classify(err error) Kind {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return KindUnknown
	}

	code := apiErr.StatusCode
	switch {
	case code == http.StatusNotFound && apiErr.Op == OpQuery:
		return KindSessionNotFound
	case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return KindTransient
	case code >= http.StatusBadRequest:
		return KindBadInput
	default:
		return KindUnknown
	}
}

// WrapError wraps an error with context message and stack
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

func capitalize(s string) string {
	if s == "" {
		return "Request"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
