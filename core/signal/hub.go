package signal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/bellinghamdata/portalkit/core/logger"
)

// SessionExpired is the name under which session invalidation is broadcast.
const SessionExpired = "session-expired"

// ErrHubClosed is returned when emitting on a closed hub.
var ErrHubClosed = errors.New("signal: hub is closed")

// Listener is invoked for every emission. Listeners run synchronously on the
// emitting goroutine and must not block.
type Listener func(ctx context.Context)

// Hub is a process-wide broadcast point for the session-expired signal.
// The HTTP client emits on it without knowing who listens; the session
// manager (and any other interested component) subscribes.
//
// Hub is safe for concurrent use. Subscriptions are explicit and individually
// revocable, so tests can construct isolated instances instead of sharing an
// ambient global bus.
type Hub struct {
	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
	closed    bool
	logger    *slog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger configures structured logging for the hub.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(log *slog.Logger) Option {
	return func(h *Hub) {
		if log != nil {
			h.logger = log
		}
	}
}

// NewHub creates an empty signal hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		listeners: make(map[int]Listener),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers fn and returns a function that removes the
// subscription. Unsubscribing twice is a no-op.
func (h *Hub) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Emit invokes every current listener with ctx. Returns ErrHubClosed after
// Close; emissions on a closed hub are otherwise silent no-ops.
func (h *Hub) Emit(ctx context.Context) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	fns := make([]Listener, 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	h.logger.DebugContext(ctx, "signal emitted",
		logger.Event(SessionExpired),
		slog.Int("listeners", len(fns)))

	for _, fn := range fns {
		fn(ctx)
	}
	return nil
}

// Len reports the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Close drops all subscriptions and rejects further emissions.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	h.closed = true
	h.listeners = make(map[int]Listener)
	h.logger.Info("signal hub closed")
	return nil
}
