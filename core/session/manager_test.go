package session_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bellinghamdata/portalkit/core/httpclient"
	"github.com/bellinghamdata/portalkit/core/kv"
	"github.com/bellinghamdata/portalkit/core/session"
	"github.com/bellinghamdata/portalkit/core/signal"
)

// mockBackend implements session.Backend for testing
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Session(ctx context.Context) (session.Info, error) {
	args := m.Called(ctx)
	return args.Get(0).(session.Info), args.Error(1)
}

func (m *mockBackend) Profile(ctx context.Context) (session.Profile, error) {
	args := m.Called(ctx)
	return args.Get(0).(session.Profile), args.Error(1)
}

func (m *mockBackend) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Helper functions

func futureExpiry(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(time.RFC3339)
}

func unauthorizedErr(method, path string) *httpclient.Error {
	return &httpclient.Error{
		Method:  method,
		URL:     path,
		Status:  http.StatusUnauthorized,
		Message: http.StatusText(http.StatusUnauthorized),
	}
}

func networkErr(method, path string) *httpclient.Error {
	return &httpclient.Error{Method: method, URL: path, Message: "connection refused"}
}

func newManager(t *testing.T, backend session.Backend, opts ...session.Option) (*session.Manager, *kv.Memory) {
	t.Helper()
	store := kv.NewMemory()
	manager, err := session.New(backend, session.NewRecordStore(store), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager, store
}

// allowProfile stubs the profile fetch that follows every successful
// authentication transition.
func allowProfile(backend *mockBackend) {
	backend.On("Profile", mock.Anything).Return(session.Profile{
		Role:        "trader",
		Permissions: []string{"contracts:read"},
	}, nil).Maybe()
}

// Tests

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires backend", func(t *testing.T) {
		t.Parallel()
		_, err := session.New(nil, session.NewRecordStore(kv.NewMemory()))
		require.ErrorIs(t, err, session.ErrMissingBackend)
	})

	t.Run("requires record store", func(t *testing.T) {
		t.Parallel()
		_, err := session.New(&mockBackend{}, nil)
		require.ErrorIs(t, err, session.ErrMissingStore)
	})

	t.Run("starts unauthenticated", func(t *testing.T) {
		t.Parallel()
		manager, _ := newManager(t, &mockBackend{})
		assert.False(t, manager.IsAuthenticated())
		assert.Empty(t, manager.Username())
		assert.Nil(t, manager.Profile())
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("future expiry authenticates and persists", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)
		manager, store := newManager(t, backend)

		expiry := futureExpiry(time.Hour)
		require.NoError(t, manager.Login(ctx, "alice", expiry))

		assert.True(t, manager.IsAuthenticated())
		assert.Equal(t, "alice", manager.Username())

		username, err := store.Get(ctx, session.KeyUsername)
		require.NoError(t, err)
		assert.Equal(t, "alice", username)

		persisted, err := store.Get(ctx, session.KeyExpiresAt)
		require.NoError(t, err)
		assert.Equal(t, expiry, persisted)
	})

	t.Run("past expiry yields unauthenticated and no record", func(t *testing.T) {
		t.Parallel()

		manager, store := newManager(t, &mockBackend{})
		err := manager.Login(ctx, "alice", futureExpiry(-time.Hour))
		require.ErrorIs(t, err, session.ErrInvalidExpiry)

		assert.False(t, manager.IsAuthenticated())
		_, err = store.Get(ctx, session.KeyUsername)
		require.ErrorIs(t, err, kv.ErrKeyNotFound)
	})

	t.Run("malformed expiry yields unauthenticated", func(t *testing.T) {
		t.Parallel()

		manager, _ := newManager(t, &mockBackend{})
		err := manager.Login(ctx, "alice", "garbage-timestamp")
		require.ErrorIs(t, err, session.ErrInvalidExpiry)
		assert.False(t, manager.IsAuthenticated())
	})

	t.Run("malformed login clears a previously valid session", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)
		manager, store := newManager(t, backend)

		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(time.Hour)))
		require.ErrorIs(t, manager.Login(ctx, "alice", ""), session.ErrInvalidExpiry)

		assert.False(t, manager.IsAuthenticated())
		assert.Equal(t, 0, store.Len())
	})

	t.Run("token stored with the record", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)
		manager, store := newManager(t, backend)

		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(time.Hour), "opaque-token"))
		assert.Equal(t, "opaque-token", manager.Token())

		persisted, err := store.Get(ctx, session.KeyToken)
		require.NoError(t, err)
		assert.Equal(t, "opaque-token", persisted)
	})

	t.Run("profile fetched after authentication", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		backend.On("Profile", mock.Anything).Return(session.Profile{
			Role:        "trader",
			Permissions: []string{"contracts:read", "bids:write"},
		}, nil).Once()

		manager, _ := newManager(t, backend)
		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(time.Hour)))

		profile := manager.Profile()
		require.NotNil(t, profile)
		assert.Equal(t, "trader", profile.Role)
		assert.True(t, profile.HasPermission("bids:write"))
		backend.AssertExpectations(t)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("clears memory, storage, and profile; calls backend once", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)
		backend.On("Logout", mock.Anything).Return(nil).Once()

		manager, store := newManager(t, backend)
		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(time.Hour)))

		require.NoError(t, manager.Logout(ctx))

		assert.False(t, manager.IsAuthenticated())
		assert.Nil(t, manager.Profile())
		assert.Equal(t, 0, store.Len())
		backend.AssertExpectations(t)
	})

	t.Run("locally effective even when backend call fails", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)
		backend.On("Logout", mock.Anything).Return(networkErr(http.MethodPost, "/api/logout")).Once()

		manager, store := newManager(t, backend)
		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(time.Hour)))

		require.NoError(t, manager.Logout(ctx))
		assert.False(t, manager.IsAuthenticated())
		assert.Equal(t, 0, store.Len())
	})

	t.Run("idempotent: double logout repeats only the backend call", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)
		backend.On("Logout", mock.Anything).Return(nil).Twice()

		manager, _ := newManager(t, backend)
		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(time.Hour)))

		require.NoError(t, manager.Logout(ctx))
		require.NoError(t, manager.Logout(ctx))

		assert.False(t, manager.IsAuthenticated())
		backend.AssertExpectations(t)
	})
}

func TestExpiryTimer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("session auto-expires when the timer fires", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)
		backend.On("Logout", mock.Anything).Return(nil)

		manager, store := newManager(t, backend)
		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(1500*time.Millisecond)))
		require.True(t, manager.IsAuthenticated())

		assert.Eventually(t, func() bool {
			return !manager.IsAuthenticated()
		}, 5*time.Second, 20*time.Millisecond)
		assert.Equal(t, 0, store.Len())
		backend.AssertCalled(t, "Logout", mock.Anything)
	})

	t.Run("re-login reschedules: the earlier timer never fires", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)
		backend.On("Logout", mock.Anything).Return(nil).Maybe()

		manager, _ := newManager(t, backend)
		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(200*time.Millisecond)))
		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(time.Hour)))

		// Well past the first expiry, the renewed session must survive.
		time.Sleep(500 * time.Millisecond)
		assert.True(t, manager.IsAuthenticated())
		backend.AssertNotCalled(t, "Logout", mock.Anything)
	})
}

func TestRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid server-side cookie authenticates without a local record", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)
		backend.On("Session", mock.Anything).Return(session.Info{
			Username:  "alice",
			ExpiresAt: futureExpiry(time.Hour),
		}, nil).Once()

		manager, store := newManager(t, backend)
		require.NoError(t, manager.Restore(ctx))

		assert.True(t, manager.IsAuthenticated())
		assert.Equal(t, "alice", manager.Username())

		username, err := store.Get(ctx, session.KeyUsername)
		require.NoError(t, err)
		assert.Equal(t, "alice", username)
	})

	t.Run("401 clears state and persisted record without error", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		backend.On("Session", mock.Anything).
			Return(session.Info{}, unauthorizedErr(http.MethodGet, "/api/session")).Once()

		store := kv.NewMemory()
		records := session.NewRecordStore(store)
		require.NoError(t, records.Save(ctx, session.Record{
			Username:  "alice",
			ExpiresAt: futureExpiry(time.Hour),
		}))

		manager, err := session.New(backend, records)
		require.NoError(t, err)
		defer manager.Close()

		require.NoError(t, manager.Restore(ctx))
		assert.False(t, manager.IsAuthenticated())
		assert.Equal(t, 0, store.Len())
	})

	t.Run("network failure keeps the seeded record state", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		backend.On("Session", mock.Anything).
			Return(session.Info{}, networkErr(http.MethodGet, "/api/session")).Once()

		store := kv.NewMemory()
		records := session.NewRecordStore(store)
		expiry := futureExpiry(time.Hour)
		require.NoError(t, records.Save(ctx, session.Record{Username: "alice", ExpiresAt: expiry}))

		manager, err := session.New(backend, records)
		require.NoError(t, err)
		defer manager.Close()

		err = manager.Restore(ctx)
		require.Error(t, err, "transient failures surface to the caller")

		// A timeout must not silently log the user out.
		assert.True(t, manager.IsAuthenticated())
		assert.Equal(t, "alice", manager.Username())
	})

	t.Run("round-trip reproduces persisted session on a fresh instance", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)
		backend.On("Logout", mock.Anything).Return(nil).Maybe()
		backend.On("Session", mock.Anything).
			Return(session.Info{}, networkErr(http.MethodGet, "/api/session"))

		store := kv.NewMemory()

		first, err := session.New(backend, session.NewRecordStore(store))
		require.NoError(t, err)
		expiry := futureExpiry(time.Hour)
		require.NoError(t, first.Login(ctx, "alice", expiry, "opaque-token"))
		before := first.Current()
		first.Close()

		second, err := session.New(backend, session.NewRecordStore(store))
		require.NoError(t, err)
		defer second.Close()
		_ = second.Restore(ctx)

		after := second.Current()
		assert.True(t, second.IsAuthenticated())
		assert.Equal(t, before.Username, after.Username)
		assert.True(t, before.ExpiresAt.Equal(after.ExpiresAt))
		assert.Equal(t, before.Token, after.Token)
	})

	t.Run("stale persisted record is cleared and does not authenticate", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		backend.On("Session", mock.Anything).
			Return(session.Info{}, networkErr(http.MethodGet, "/api/session")).Once()

		store := kv.NewMemory()
		records := session.NewRecordStore(store)
		require.NoError(t, records.Save(ctx, session.Record{
			Username:  "alice",
			ExpiresAt: futureExpiry(-time.Hour),
		}))

		manager, err := session.New(backend, records)
		require.NoError(t, err)
		defer manager.Close()

		_ = manager.Restore(ctx)
		assert.False(t, manager.IsAuthenticated())
		assert.Equal(t, 0, store.Len())
	})

	t.Run("server response with malformed expiry fails safe to logged out", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		backend.On("Session", mock.Anything).Return(session.Info{
			Username:  "alice",
			ExpiresAt: "not-a-timestamp",
		}, nil).Once()

		manager, _ := newManager(t, backend)
		require.NoError(t, manager.Restore(ctx))
		assert.False(t, manager.IsAuthenticated())
	})
}

func TestRefreshProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("401 forces the unauthenticated transition", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		backend.On("Profile", mock.Anything).Return(session.Profile{}, nil).Once()
		backend.On("Profile", mock.Anything).
			Return(session.Profile{}, unauthorizedErr(http.MethodGet, "/api/profile")).Once()

		manager, store := newManager(t, backend)
		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(time.Hour)))
		require.True(t, manager.IsAuthenticated())

		err := manager.RefreshProfile(ctx)
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, httpclient.StatusOf(err))
		assert.False(t, manager.IsAuthenticated())
		assert.Nil(t, manager.Profile())
		assert.Equal(t, 0, store.Len())
	})

	t.Run("network hiccup leaves state unchanged", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		backend.On("Profile", mock.Anything).Return(session.Profile{Role: "trader"}, nil).Once()
		backend.On("Profile", mock.Anything).
			Return(session.Profile{}, networkErr(http.MethodGet, "/api/profile")).Once()

		manager, _ := newManager(t, backend)
		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(time.Hour)))

		require.NoError(t, manager.RefreshProfile(ctx))
		assert.True(t, manager.IsAuthenticated())

		profile := manager.Profile()
		require.NotNil(t, profile)
		assert.Equal(t, "trader", profile.Role)
	})

	t.Run("no call while unauthenticated", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		manager, _ := newManager(t, backend)

		err := manager.RefreshProfile(ctx)
		require.ErrorIs(t, err, session.ErrNotAuthenticated)
		assert.Nil(t, manager.Profile())
		backend.AssertNotCalled(t, "Profile", mock.Anything)
	})
}

func TestSessionExpiredSignal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("signal forces logout", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)
		backend.On("Logout", mock.Anything).Return(nil).Once()

		hub := signal.NewHub()
		manager, store := newManager(t, backend, session.WithSignalHub(hub))
		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(time.Hour)))

		require.NoError(t, hub.Emit(ctx))

		assert.False(t, manager.IsAuthenticated())
		assert.Equal(t, 0, store.Len())
		backend.AssertExpectations(t)
	})

	t.Run("signal while unauthenticated is a no-op", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		hub := signal.NewHub()
		manager, _ := newManager(t, backend, session.WithSignalHub(hub))

		require.NoError(t, hub.Emit(ctx))
		assert.False(t, manager.IsAuthenticated())
		backend.AssertNotCalled(t, "Logout", mock.Anything)
	})

	t.Run("closed manager no longer reacts", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{}
		allowProfile(backend)

		hub := signal.NewHub()
		store := kv.NewMemory()
		manager, err := session.New(backend, session.NewRecordStore(store), session.WithSignalHub(hub))
		require.NoError(t, err)

		require.NoError(t, manager.Login(ctx, "alice", futureExpiry(time.Hour)))
		require.NoError(t, manager.Close())

		require.NoError(t, hub.Emit(ctx))
		assert.True(t, manager.Current().IsAuthenticated())
		backend.AssertNotCalled(t, "Logout", mock.Anything)
	})
}

func TestClockInjection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("virtual clock decides validity", func(t *testing.T) {
		t.Parallel()

		base := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
		current := base
		clock := func() time.Time { return current }

		backend := &mockBackend{}
		allowProfile(backend)
		manager, _ := newManager(t, backend, session.WithClock(clock))

		expiry := base.Add(30 * time.Minute).Format(time.RFC3339)
		require.NoError(t, manager.Login(ctx, "alice", expiry))
		assert.True(t, manager.IsAuthenticated())

		// Advance the clock past the expiry: the invariant holds regardless
		// of whether the timer has fired.
		current = base.Add(time.Hour)
		assert.False(t, manager.IsAuthenticated())
		assert.Empty(t, manager.Username())
		assert.Empty(t, manager.Token())
	})
}

func TestConcurrentTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &mockBackend{}
	allowProfile(backend)
	backend.On("Logout", mock.Anything).Return(nil).Maybe()

	manager, _ := newManager(t, backend)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = manager.Login(ctx, "alice", futureExpiry(time.Hour))
		}
	}()
	for i := 0; i < 50; i++ {
		_ = manager.Logout(ctx)
		_ = manager.IsAuthenticated()
	}
	<-done

	// Whatever the final state, it must be internally consistent.
	final := manager.Current()
	if final.IsAuthenticated() {
		assert.Equal(t, "alice", final.Username)
	} else {
		assert.Empty(t, final.Username)
	}
}
