package session

import "errors"

var (
	// ErrInvalidExpiry is returned when a login carries a missing, malformed,
	// or already-past expiry. The manager treats such input as producing an
	// unauthenticated state rather than a crash or a falsely valid session.
	ErrInvalidExpiry = errors.New("session: expiry is missing, malformed, or in the past")
	// ErrNotAuthenticated is returned by operations that require a valid
	// session.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrMissingBackend is returned when a Manager is constructed without a
	// backend.
	ErrMissingBackend = errors.New("session: backend is required")
	// ErrMissingStore is returned when a Manager is constructed without a
	// record store.
	ErrMissingStore = errors.New("session: record store is required")
)
