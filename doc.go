// Package portalkit is a Go client for the Bellingham data-contract trading
// portal, built for headless agents and CLI tools that need the same session
// lifecycle the web portal has: cookie-based login with a hard expiry,
// durable session facts that survive a restart, bounded retry of transient
// request failures, and automatic local logout the moment the backend stops
// honoring the credentials.
//
// New (or Load, which reads the environment) wires the pieces together:
//
//	portal, err := portalkit.New(ctx, portalkit.Config{BaseURL: "https://portal.example.com"})
//	if err != nil {
//		...
//	}
//	defer portal.Close()
//
//	result, err := portal.API.Authenticate(ctx, username, password)
//	if err != nil {
//		...
//	}
//	if err := portal.Session.Login(ctx, result.Username, result.ExpiresAt, result.Token); err != nil {
//		...
//	}
//
//	contracts, err := portal.API.AvailableContracts(ctx)
//
// The sub-packages are usable on their own; this package only assembles
// them. See core/session for the session state machine, core/httpclient for
// retry and credential attachment, api for the typed endpoints, and
// core/stream for the server-push channels.
package portalkit
