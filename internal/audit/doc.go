// Package audit implements async dispatching of session lifecycle events.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON lines, slog, no-op).
//   - [Dispatcher]: buffered async relay that either drops or blocks when full.
//   - [Event]: record with id, timestamp, type, user, outcome, and metadata.
//
// # Architecture boundaries
//
// This package owns buffering and sink delivery. It does not decide which
// events to emit; the engine does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goGuard or any sibling package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
