// Package api wraps the Bellingham portal's REST endpoints in typed calls:
// authentication and registration, the contract marketplace, notifications,
// saved searches, and admin access management.
//
// The package sits above core/httpclient and below the session manager in
// the dependency order: it implements session.Backend, so the manager never
// touches paths or payloads directly.
package api
