package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bellinghamdata/portalkit/core/logger"
	"github.com/bellinghamdata/portalkit/core/signal"
)

const (
	// DefaultMaxRetries is the process-wide retry ceiling: one retry beyond
	// the initial attempt.
	DefaultMaxRetries = 1

	headerRequestID = "X-Request-ID"
)

// TokenSource supplies the optional bearer token attached to outbound
// requests. Returning an empty string means no token is available; sources
// must not block.
type TokenSource func(ctx context.Context) string

// Response is a fully read HTTP response. Bodies are buffered so that retry
// decisions and JSON decoding never contend over a live stream.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// DecodeJSON unmarshals the response body into out.
func (r *Response) DecodeJSON(out any) error {
	if out == nil || len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, out)
}

// Client issues portal API requests with uniform credential attachment,
// bounded retry of transient failures, and process-wide notification of
// authentication failures. It deliberately knows nothing about session
// state: on a 401 it emits on the signal hub and leaves the consequence to
// whoever listens.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	maxRetries int
	retryDelay time.Duration
	token      TokenSource
	hub        *signal.Hub
	logger     *slog.Logger
}

// New creates a Client for the given API base URL. An empty base URL targets
// relative paths on the local host, mirroring a same-origin deployment.
// A cookie jar is always present so the backend's session cookie flows with
// every request.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		maxRetries: DefaultMaxRetries,
		token:      func(context.Context) string { return "" },
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	resolved := ResolveBaseURL(baseURL)
	if resolved != "" {
		parsed, err := url.Parse(resolved)
		if err != nil {
			return nil, ErrInvalidBaseURL
		}
		c.baseURL = parsed
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}

	return c, nil
}

// ResolveBaseURL normalizes a configured base URL: surrounding whitespace and
// trailing slashes are stripped, and a solitary slash collapses to the empty
// string (same-origin).
func ResolveBaseURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for strings.HasSuffix(trimmed, "/") {
		trimmed = strings.TrimSuffix(trimmed, "/")
	}
	return trimmed
}

// Endpoint joins path with the configured base URL.
func (c *Client) Endpoint(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if c.baseURL == nil {
		return path
	}
	return c.baseURL.String() + path
}

// NewRequest builds an authorized request for path without sending it.
// Used by the stream package, which manages its own long-lived connection
// but must carry the same credentials.
func (c *Client) NewRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.Endpoint(path), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	return req, nil
}

// HTTP exposes the underlying http.Client (and with it the shared cookie
// jar) for callers that need direct connection control.
func (c *Client) HTTP() *http.Client {
	return c.http
}

// Do sends one logical request, retrying transient failures up to the
// applicable ceiling. Retries are strictly sequential and resubmit the same
// body; after exhaustion the last failure is returned unchanged.
//
// Whenever any attempt observes a 401, the session-expired signal is emitted
// exactly once for the call before the error is surfaced.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, opts ...RequestOption) (*Response, error) {
	rc := requestConfig{maxRetries: -1}
	for _, opt := range opts {
		opt(&rc)
	}

	ceiling := c.maxRetries
	if rc.maxRetries >= 0 {
		ceiling = rc.maxRetries
	}

	target := c.Endpoint(path)
	requestID := uuid.NewString()

	var lastErr *Error
	expired := false

	for attempt := 0; attempt <= ceiling; attempt++ {
		if attempt > 0 && c.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, &Error{Method: method, URL: target, Message: ctx.Err().Error(), cause: ctx.Err()}
			case <-time.After(c.retryDelay):
			}
		}

		resp, reqErr := c.attempt(ctx, method, target, body, requestID, rc.header)
		if reqErr == nil {
			return resp, nil
		}

		lastErr = reqErr
		if reqErr.Unauthorized() && !expired {
			expired = true
			if c.hub != nil {
				_ = c.hub.Emit(ctx)
			}
		}
		if !reqErr.Transient() {
			break
		}
	}

	c.logger.ErrorContext(ctx, "request failed",
		logger.Method(method),
		logger.URL(target),
		logger.StatusCode(lastErr.Status),
		logger.RequestID(requestID),
		logger.RetryCount(ceiling),
		logger.Error(lastErr))

	return nil, lastErr
}

// attempt performs a single submission and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, target string, body []byte, requestID string, extra http.Header) (*Response, *Error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &Error{Method: method, URL: target, Message: err.Error(), cause: err}
	}

	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	for key, values := range extra {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Method: method, URL: target, Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Method: method, URL: target, Status: resp.StatusCode, Message: err.Error(), cause: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &Error{
			Method:  method,
			URL:     target,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, payload),
		}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: payload}, nil
}

func (c *Client) authorize(req *http.Request) {
	if token := c.token(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// errorMessage prefers the server-provided message over the generic status
// text so call sites can present something actionable.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return http.StatusText(status)
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any, opts ...RequestOption) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, opts...)
	if err != nil {
		return err
	}
	return resp.DecodeJSON(out)
}

// PostJSON issues a POST with in encoded as the JSON body and decodes the
// response into out. Either side may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any, opts ...RequestOption) error {
	return c.sendJSON(ctx, http.MethodPost, path, in, out, opts...)
}

// PutJSON issues a PUT with in encoded as the JSON body and decodes the
// response into out.
func (c *Client) PutJSON(ctx context.Context, path string, in, out any, opts ...RequestOption) error {
	return c.sendJSON(ctx, http.MethodPut, path, in, out, opts...)
}

// DeleteJSON issues a DELETE and decodes the JSON response into out.
func (c *Client) DeleteJSON(ctx context.Context, path string, out any, opts ...RequestOption) error {
	resp, err := c.Do(ctx, http.MethodDelete, path, nil, opts...)
	if err != nil {
		return err
	}
	return resp.DecodeJSON(out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any, opts ...RequestOption) error {
	var body []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = encoded
	}

	resp, err := c.Do(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	return resp.DecodeJSON(out)
}
