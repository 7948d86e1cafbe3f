package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bellinghamdata/portalkit/core/signal"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. A cookie jar is
// installed on it if it has none, since portal authentication is
// cookie-based.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMaxRetries sets the process-wide retry ceiling applied when a request
// does not override it. The ceiling counts retries beyond the initial
// attempt; negative values are treated as zero.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = max(n, 0)
	}
}

// WithRetryDelay sets a fixed pause between attempts. Default is no delay,
// matching the immediate-resubmit behavior the portal backend expects.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// WithTokenSource configures a bearer token lookup. When the source returns
// a non-empty token it is attached as an Authorization header in addition to
// the session cookie.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		if src != nil {
			c.token = src
		}
	}
}

// WithSignalHub wires the hub on which 401 responses are broadcast.
// Without a hub, authentication failures are still surfaced to the caller
// but nothing else in the process learns about them.
func WithSignalHub(hub *signal.Hub) Option {
	return func(c *Client) {
		c.hub = hub
	}
}

// WithLogger configures structured logging for terminal request failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// RequestOption adjusts a single request.
type RequestOption func(*requestConfig)

type requestConfig struct {
	maxRetries int
	header     http.Header
}

// WithRequestMaxRetries overrides the client-wide retry ceiling for one
// request. Zero disables retries for the request entirely.
func WithRequestMaxRetries(n int) RequestOption {
	return func(rc *requestConfig) {
		rc.maxRetries = max(n, 0)
	}
}

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		if rc.header == nil {
			rc.header = make(http.Header)
		}
		rc.header.Add(key, value)
	}
}
