// Package session owns the authenticated identity and the access/refresh token
// pair for one long-lived dashboard session.
//
// # Single-flight
//
// [Manager.FetchProfile] and [Manager.RefreshAuthToken] coalesce concurrent
// callers: while one call is in flight, later callers wait for and share its
// outcome instead of issuing another round-trip. The in-flight registry is keyed
// by operation kind and forgets a key exactly once, when its call settles.
//
// # Architecture boundaries
//
// This package calls the remote auth service only through [Transport] and
// persists tokens only through credential.Store. It does not inspect route
// permissions or make navigation decisions.
//
// # What this package must NOT do
//
//   - Verify token signatures. Tokens are opaque; the unverified exp claim is
//     read for display only.
//   - Refresh proactively on a timer. Refresh is triggered by a failed call.
//   - Let callers mutate session state directly.
package session
