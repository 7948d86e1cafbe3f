// Package kv provides string-keyed, string-valued persistence for the small
// set of durable facts the portal client keeps between runs, most importantly
// the session record (username, expiry, optional token).
//
// The Store interface guarantees atomic multi-key writes: SetAll and
// DeleteAll apply their whole batch or none of it, which is what keeps the
// persisted session record from ever being observed half-written.
//
// Two implementations ship with the package:
//
//   - Memory: map-backed, for tests and ephemeral processes
//   - File: single JSON document with temp-file-and-rename writes, for CLI
//     tools that keep a session across invocations
//
// A Redis-backed implementation for processes sharing one session lives in
// the integration/redis package.
package kv
