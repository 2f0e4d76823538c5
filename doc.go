// Package goGuard wires a dashboard client's session, permission table, and
// navigation guard into one [Engine].
//
// The engine is safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// goGuard is the assembly surface. It exposes [Engine], [Builder], [Config],
// metrics, and audit types. The behavior lives in the sub-packages:
//
//   - credential: token persistence (memory, cookie jar, Redis)
//   - session: identity and token pair, single-flight profile fetch and refresh
//   - permission: role table and route, feature, and navigation checks
//   - guard: precedence-ordered navigation decisions
//   - transport: JSON auth client and refresh-and-retry interceptor
//   - middleware: net/http adapter over [Engine.Navigate]
//
// # What this package must NOT do
//
//   - Re-implement session or permission rules; it only composes them.
//   - Be imported by any of the sub-packages above.
//   - Perform network I/O during Build beyond restoring persisted tokens.
package goGuard
