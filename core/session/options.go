package session

import (
	"log/slog"
	"time"

	"github.com/bellinghamdata/portalkit/core/signal"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger configures structured logging for session transitions.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.logger = log
		}
	}
}

// WithClock replaces the time source used for expiry evaluation and timer
// scheduling. Tests use this to exercise expiry deterministically.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSignalHub subscribes the manager to the session-expired broadcast so a
// 401 on any request in the process forces a consistent logout.
func WithSignalHub(hub *signal.Hub) Option {
	return func(m *Manager) {
		m.hub = hub
	}
}
