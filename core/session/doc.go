// Package session owns the portal client's authentication lifecycle: whether
// a session is valid, for which principal, until when, and the optional
// bearer token issued alongside the backend's cookie.
//
// # Core Components
//
//   - Session: immutable snapshot of authentication state
//   - Manager: single owner of session state and the expiry timer
//   - Backend: the three session endpoints the manager calls
//   - RecordStore: the durable record surviving restarts, written atomically
//   - Profile: role and permission set, refetched on every authentication
//
// # State machine
//
// Two states, unauthenticated (initial) and authenticated. A successful
// Login or Restore moves to authenticated; Logout, the expiry timer, a 401
// from Restore or RefreshProfile, or the process-wide session-expired signal
// move back. Re-applying a session while authenticated is allowed and resets
// the expiry timer. Every transition funnels through one internal function,
// so the validity invariant (username present, expiry present, expiry
// strictly in the future) holds everywhere or nowhere.
//
// # Basic Usage
//
//	manager, err := session.New(backend, session.NewRecordStore(store),
//		session.WithSignalHub(hub),
//		session.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//	defer manager.Close()
//
//	if err := manager.Restore(ctx); err != nil {
//		// transient failure; session state is unchanged
//	}
//
//	if manager.IsAuthenticated() {
//		fmt.Println("signed in as", manager.Username())
//	}
package session
