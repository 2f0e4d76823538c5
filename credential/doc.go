// Package credential persists the access/refresh token pair behind a pluggable
// backend with an explicit retention policy.
//
// # Backends
//
//   - [MemoryBackend]: expiring in-process map, the default.
//   - [CookieBackend]: net/http cookie jar; the same jar can be handed to an
//     http.Client so persisted cookies travel with requests.
//   - [RedisBackend]: go-redis key/value with server-side TTL.
//
// # Architecture boundaries
//
// The store treats tokens as opaque strings. It does not parse, validate, or
// refresh them; that belongs to the session manager.
//
// # What this package must NOT do
//
//   - Surface backend failures to callers. Durability is best-effort: errors are
//     logged and the in-memory session keeps working.
//   - Import session, permission, or guard.
package credential
