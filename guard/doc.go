// Package guard decides, before every navigation, whether the destination is
// admitted, redirected, or requires a forced logout.
//
// # Precedence
//
// [Guard.Check] evaluates its rules in a fixed order and the first match wins:
//
//  1. root placeholder
//  2. login page while a token is held
//  3. other public routes
//  4. protected route without a token
//  5. protected route with a token but no profile
//  6. dashboard placeholder
//  7. route permission check
//  8. admit
//
// Reordering the rules changes observable redirect targets.
//
// # Side effects
//
// Only profile fetches and logouts on the session are performed. The guard
// never mutates the permission table and never returns an error; every failure
// is expressed as a [Decision].
package guard
