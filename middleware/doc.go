// Package middleware adapts the navigation guard and permission checks to
// net/http for dashboards rendered by a Go server.
//
//   - [Guard] runs page requests through a [Navigator] and turns non-admit
//     decisions into redirects.
//   - [RequirePermission] gates a handler on one feature action.
//
// Decisions are made by the engine; this package only translates them into
// HTTP responses.
package middleware
