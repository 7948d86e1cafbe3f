package session

import "context"

// Info is the session fact pair the backend reports from its session-check
// and authentication endpoints. ExpiresAt stays in wire format (ISO-8601)
// until applySession validates it.
type Info struct {
	Username  string `json:"username"`
	ExpiresAt string `json:"expiresAt"`
}

// Backend abstracts the three session endpoints the manager depends on.
// The api package provides the production implementation; tests supply
// mocks. Implementations must surface HTTP failures as *httpclient.Error so
// the manager can distinguish a 401 from a transient fault.
type Backend interface {
	// Session checks whether a valid server-side session exists, typically
	// carried by a cookie that survived a restart.
	Session(ctx context.Context) (Info, error)
	// Profile fetches the authenticated principal's role and permissions.
	Profile(ctx context.Context) (Profile, error)
	// Logout invalidates the server-side session.
	Logout(ctx context.Context) error
}
