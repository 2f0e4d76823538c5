// Package transport is the JSON-over-HTTP implementation of the session
// transport contract, plus an [http.RoundTripper] that keeps requests
// authorized.
//
// # Flow
//
//	Client.Login/GetProfile/...  ->  http.Client  ->  Interceptor  ->  base RoundTripper
//
// The [Interceptor] attaches the bearer token held by the session and, on a
// 401, renews the token pair through the session's single-flight refresh and
// replays the request once. When renewal fails or the replay is rejected again
// the session is logged out.
//
// Credential endpoints (login, register, federated login, refresh, logout) are
// never refreshed-and-retried; a 401 there is an answer, not an expiry.
package transport
