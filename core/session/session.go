package session

import (
	"slices"
	"time"
)

// Session is the client's belief about the current authentication state:
// who is signed in, until when, and the optional bearer token the backend
// issued alongside its cookie. The zero value is the unauthenticated state.
//
// Session is exclusively owned by the Manager; consumers read snapshots and
// never mutate them.
type Session struct {
	Username  string
	ExpiresAt time.Time
	Token     string
}

// IsAuthenticated reports whether the session is valid right now.
func (s Session) IsAuthenticated() bool {
	return s.IsAuthenticatedAt(time.Now())
}

// IsAuthenticatedAt reports whether the session is valid at the given
// instant: a username is present, an expiry is present, and the expiry is
// strictly in the future. A past expiry never authenticates, regardless of
// what was cached.
func (s Session) IsAuthenticatedAt(now time.Time) bool {
	return s.Username != "" && !s.ExpiresAt.IsZero() && s.ExpiresAt.After(now)
}

// Profile is the authenticated principal's role and permission set, fetched
// from the backend after every authentication transition. It is never
// persisted and is always nil while unauthenticated.
type Profile struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the profile grants the named permission.
func (p *Profile) HasPermission(name string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Permissions, name)
}
