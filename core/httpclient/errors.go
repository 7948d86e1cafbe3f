package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidBaseURL is returned by New when the base URL cannot be parsed.
var ErrInvalidBaseURL = errors.New("httpclient: invalid base URL")

// Error is the structured failure surfaced for every unsuccessful request.
// Status is zero when no response was received (transport failure, timeout).
// Method and URL identify the original request so call sites can present a
// useful message without re-deriving context.
type Error struct {
	Method  string
	URL     string
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, e.Message)
}

// Unwrap exposes the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Transient reports whether the failure is worth retrying unchanged:
// no response at all, or a 5xx from the server. 4xx responses indicate a
// well-formed but rejected request and are never transient.
func (e *Error) Transient() bool {
	return e.Status == 0 || (e.Status >= http.StatusInternalServerError && e.Status < 600)
}

// Unauthorized reports whether the failure is a 401.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// StatusOf returns the HTTP status carried by err, or zero if err is not a
// client Error or no response was received.
func StatusOf(err error) int {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}
