package stream

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/bellinghamdata/portalkit/core/httpclient"
	"github.com/bellinghamdata/portalkit/core/logger"
	"github.com/bellinghamdata/portalkit/core/signal"
)

// Server-push channels exposed by the portal backend.
const (
	NotificationsPath = "/api/notifications/stream"
	ContractsPath     = "/api/contracts/stream"
)

// DefaultBufferSize is the default capacity of a subscription's event
// channel.
const DefaultBufferSize = 32

// Event is one server-push message. Data holds the raw JSON payload; Name
// carries the event type ("notification", "market-update").
type Event struct {
	Name string
	ID   string
	Data []byte
}

// Client consumes the backend's Server-Sent Events channels. It reuses the
// HTTP client's cookie jar and bearer token, so a stream carries the same
// credentials as every other request.
//
// Streams are a best-effort enhancement on top of the authenticated session:
// open them after logging in and close them when authentication ends. The
// server also ends the stream on its side once the session dies, which closes
// the event channel.
type Client struct {
	http   *httpclient.Client
	hub    *signal.Hub
	logger *slog.Logger
	buffer int
}

// Option configures a stream Client.
type Option func(*Client)

// WithLogger configures structured logging for stream lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithBufferSize sets the event channel capacity per subscription.
func WithBufferSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// WithSignalHub wires the hub on which a 401 while opening a stream is
// broadcast, matching the behavior of every other request in the process.
func WithSignalHub(hub *signal.Hub) Option {
	return func(c *Client) {
		c.hub = hub
	}
}

// New creates a stream client on top of the shared HTTP client.
func New(hc *httpclient.Client, opts ...Option) *Client {
	c := &Client{
		http:   hc,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		buffer: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscription is one open server-push connection. Close tears the
// connection down and closes the event channel; it is safe to call more
// than once.
type Subscription struct {
	events chan Event
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// Events returns the channel on which parsed events arrive. The channel is
// closed when the subscription ends, whether by Close or by a broken
// connection.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close releases the connection. Events already buffered remain readable.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// Subscribe opens the server-push channel at path and starts delivering
// events. The connection stays open until Close is called, ctx is canceled,
// or the server ends the stream.
func (c *Client) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	req, err := c.http.NewRequest(streamCtx, http.MethodGet, path)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.HTTP().Do(req)
	if err != nil {
		cancel()
		return nil, &httpclient.Error{
			Method:  http.MethodGet,
			URL:     req.URL.String(),
			Message: err.Error(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()

		if resp.StatusCode == http.StatusUnauthorized && c.hub != nil {
			_ = c.hub.Emit(ctx)
		}
		return nil, &httpclient.Error{
			Method:  http.MethodGet,
			URL:     req.URL.String(),
			Status:  resp.StatusCode,
			Message: http.StatusText(resp.StatusCode),
		}
	}

	sub := &Subscription{
		events: make(chan Event, c.buffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go c.read(streamCtx, path, resp.Body, sub)

	c.logger.InfoContext(ctx, "stream opened", logger.URL(req.URL.String()))
	return sub, nil
}

// read consumes the SSE wire format: "event:", "data:", and "id:" fields
// accumulate until a blank line dispatches the event; an event still pending
// when the connection ends is dispatched as well, matching EventSource.
// Comment lines (keep-alives) and unknown fields are skipped. Malformed
// input is never fatal; the loop ends only when the connection does.
func (c *Client) read(ctx context.Context, path string, body io.ReadCloser, sub *Subscription) {
	defer close(sub.done)
	defer close(sub.events)
	defer body.Close()

	var (
		name    string
		id      string
		data    [][]byte
		scanner = bufio.NewScanner(body)
	)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	dispatch := func() bool {
		if len(data) == 0 {
			return true
		}
		event := Event{Name: name, ID: id, Data: bytes.Join(data, []byte("\n"))}
		select {
		case sub.events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if !dispatch() {
				return
			}
			name, id, data = "", "", nil
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, []byte(value))
		case "id":
			id = value
		}
	}

	dispatch()

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		c.logger.WarnContext(ctx, "stream connection lost",
			logger.URL(path),
			logger.Error(err))
	}
}
