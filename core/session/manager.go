package session

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bellinghamdata/portalkit/core/httpclient"
	"github.com/bellinghamdata/portalkit/core/logger"
	"github.com/bellinghamdata/portalkit/core/signal"
)

// Manager is the single source of truth for "is the user logged in, as whom,
// until when". It owns the in-memory session, the persisted record, the
// expiry timer, and the reaction to the process-wide session-expired signal.
//
// All state changes funnel through applySession, so the authentication
// invariant is enforced in exactly one place. The manager has two states,
// unauthenticated and authenticated; any failure not explicitly handled
// leaves the current state unchanged.
type Manager struct {
	backend Backend
	records *RecordStore
	hub     *signal.Hub
	logger  *slog.Logger
	now     func() time.Time

	mu          sync.Mutex
	current     Session
	profile     *Profile
	timer       *time.Timer
	timerGen    uint64
	unsubscribe func()
}

// New creates a Manager. The backend performs the session endpoints; the
// record store persists session facts across restarts.
func New(backend Backend, records *RecordStore, opts ...Option) (*Manager, error) {
	if backend == nil {
		return nil, ErrMissingBackend
	}
	if records == nil {
		return nil, ErrMissingStore
	}

	m := &Manager{
		backend: backend,
		records: records,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.hub != nil {
		m.unsubscribe = m.hub.Subscribe(m.onSessionExpired)
	}

	return m, nil
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsAuthenticated reports whether the session is valid at this instant.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.IsAuthenticatedAt(m.now())
}

// Username returns the authenticated principal's name, or the empty string.
func (m *Manager) Username() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current.IsAuthenticatedAt(m.now()) {
		return ""
	}
	return m.current.Username
}

// Token returns the bearer token of the current session, or the empty
// string when none was issued or the session is invalid.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current.IsAuthenticatedAt(m.now()) {
		return ""
	}
	return m.current.Token
}

// Profile returns the fetched profile, or nil while unauthenticated or
// before the first successful refresh.
func (m *Manager) Profile() *Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil
	}
	snapshot := *m.profile
	return &snapshot
}

// Restore re-establishes the session at startup. It first seeds in-memory
// state from the persisted record (a stale or corrupt record is cleared),
// then asks the backend whether a server-side session still exists; a valid
// cookie can authenticate even with no local record. A 401 clears all state;
// any other backend failure is returned with the seeded state left intact,
// since a network timeout must not silently log the user out.
func (m *Manager) Restore(ctx context.Context) error {
	record, ok, err := m.records.Load(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to read persisted session record", logger.Error(err))
	}
	if ok {
		if expiry, perr := record.ParseExpiry(); perr == nil && expiry.After(m.now()) {
			if _, aerr := m.applySession(ctx, record.Username, record.ExpiresAt, record.Token, false); aerr != nil {
				m.logger.WarnContext(ctx, "failed to seed session from record", logger.Error(aerr))
			}
		} else if cerr := m.records.Clear(ctx); cerr != nil {
			m.logger.WarnContext(ctx, "failed to clear stale session record", logger.Error(cerr))
		}
	}

	info, err := m.backend.Session(ctx)
	if err != nil {
		if httpclient.StatusOf(err) == http.StatusUnauthorized {
			if _, aerr := m.applySession(ctx, "", "", "", true); aerr != nil {
				return aerr
			}
			return nil
		}
		return err
	}

	// The session-check response carries no token; keep whatever login
	// stored.
	m.mu.Lock()
	token := m.current.Token
	m.mu.Unlock()

	valid, err := m.applySession(ctx, info.Username, info.ExpiresAt, token, true)
	if err != nil {
		return err
	}
	if valid {
		m.refreshProfile(ctx)
	}
	return nil
}

// Login applies the outcome of a successful authentication call. The expiry
// must be a parseable future RFC 3339 timestamp; anything else produces the
// unauthenticated state and ErrInvalidExpiry, so a malformed server response
// can never leave the client half logged in. An optional bearer token is
// stored alongside the cookie-based credentials.
func (m *Manager) Login(ctx context.Context, username, expiresAt string, token ...string) error {
	var tok string
	if len(token) > 0 {
		tok = token[0]
	}

	valid, err := m.applySession(ctx, username, expiresAt, tok, true)
	if err != nil {
		return err
	}
	if !valid {
		return ErrInvalidExpiry
	}

	m.logger.InfoContext(ctx, "session established",
		logger.Username(username),
		logger.ExpiresAt(m.Current().ExpiresAt))

	m.refreshProfile(ctx)
	return nil
}

// Logout clears the session locally, then makes a best-effort call to the
// backend logout endpoint. The backend call failing is logged, never
// surfaced: logout is always locally effective, because the goal is to stop
// this client from presenting itself as authenticated. Calling Logout when
// already logged out repeats only the best-effort backend call.
func (m *Manager) Logout(ctx context.Context) error {
	if _, err := m.applySession(ctx, "", "", "", true); err != nil {
		return err
	}

	if err := m.backend.Logout(ctx); err != nil {
		m.logger.WarnContext(ctx, "backend logout call failed", logger.Error(err))
	}
	return nil
}

// RefreshProfile fetches the profile for the authenticated principal.
// A 401 is proof the session is no longer valid and forces the
// unauthenticated transition; any other failure is logged and leaves both
// profile and session unchanged. While unauthenticated the profile is
// cleared and no call is made.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	if !m.IsAuthenticated() {
		m.mu.Lock()
		m.profile = nil
		m.mu.Unlock()
		return ErrNotAuthenticated
	}

	profile, err := m.backend.Profile(ctx)
	if err != nil {
		if httpclient.StatusOf(err) == http.StatusUnauthorized {
			if _, aerr := m.applySession(ctx, "", "", "", true); aerr != nil {
				m.logger.WarnContext(ctx, "failed to clear session after 401", logger.Error(aerr))
			}
			return err
		}
		m.logger.WarnContext(ctx, "profile refresh failed", logger.Error(err))
		return nil
	}

	m.mu.Lock()
	m.profile = &profile
	m.mu.Unlock()
	return nil
}

// Close releases the signal subscription and any pending expiry timer.
// The session state itself is left untouched.
func (m *Manager) Close() error {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.mu.Lock()
	m.cancelTimerLocked()
	m.mu.Unlock()
	return nil
}

// refreshProfile is the best-effort variant used after authentication
// transitions; RefreshProfile already logs its failures.
func (m *Manager) refreshProfile(ctx context.Context) {
	_ = m.RefreshProfile(ctx)
}

// applySession is the sole state-transition function. It decides
// authenticated versus unauthenticated per the session invariant, updates
// in-memory state, manages the expiry timer, and conditionally persists or
// clears the durable record. It reports whether the resulting state is
// authenticated.
func (m *Manager) applySession(ctx context.Context, username, expiresAt, token string, persist bool) (bool, error) {
	var expiry time.Time
	if expiresAt != "" {
		if parsed, err := time.Parse(time.RFC3339, expiresAt); err == nil {
			expiry = parsed
		}
	}
	valid := username != "" && !expiry.IsZero() && expiry.After(m.now())

	// The persisted record is updated under the same lock as the in-memory
	// state, so interleaved transitions can never leave the two disagreeing.
	m.mu.Lock()
	defer m.mu.Unlock()

	if valid {
		m.current = Session{Username: username, ExpiresAt: expiry, Token: token}
		m.scheduleExpiryLocked(expiry)
	} else {
		m.current = Session{}
		m.profile = nil
		m.cancelTimerLocked()
	}

	if !persist {
		return valid, nil
	}

	if valid {
		return valid, m.records.Save(ctx, Record{Username: username, ExpiresAt: expiresAt, Token: token})
	}
	return valid, m.records.Clear(ctx)
}

// scheduleExpiryLocked arms the one-shot expiry timer, cancelling any prior
// one so at most a single timer is pending. The generation counter keeps a
// timer that already fired from logging out a session renewed after its
// cancellation.
func (m *Manager) scheduleExpiryLocked(expiry time.Time) {
	m.cancelTimerLocked()

	gen := m.timerGen
	delay := expiry.Sub(m.now())
	m.timer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		stale := gen != m.timerGen
		m.mu.Unlock()
		if stale {
			return
		}

		m.logger.Info("session expired", logger.Event("expiry-timer"))
		if err := m.Logout(context.Background()); err != nil {
			m.logger.Warn("logout after expiry failed", logger.Error(err))
		}
	})
}

func (m *Manager) cancelTimerLocked() {
	m.timerGen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// onSessionExpired reacts to the process-wide signal raised when any request
// observes a 401. Skipping the already-unauthenticated case keeps the
// best-effort logout call from re-triggering the signal in a loop.
func (m *Manager) onSessionExpired(ctx context.Context) {
	if !m.IsAuthenticated() {
		return
	}

	m.logger.InfoContext(ctx, "session expired signal received", logger.Event(signal.SessionExpired))
	if err := m.Logout(ctx); err != nil {
		m.logger.WarnContext(ctx, "logout after session-expired signal failed", logger.Error(err))
	}
}
