// Package signal provides the process-wide session-expired broadcast used to
// force a consistent logout when any request observes a 401.
//
// The hub decouples the HTTP client from the session manager: the client
// emits without importing session state, and the manager reacts by clearing
// it. Subscriptions are explicit callbacks with revocation, so components can
// be wired and torn down independently:
//
//	hub := signal.NewHub()
//	unsubscribe := hub.Subscribe(func(ctx context.Context) {
//		// force logout
//	})
//	defer unsubscribe()
//
//	hub.Emit(ctx)
package signal
