package goGuard

import "errors"

var (
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrNoTransport is returned when neither a base URL nor a transport is configured.
	ErrNoTransport = errors.New("auth base url or transport required")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrRedisRequired is returned when the redis credential backend has no client or address.
	ErrRedisRequired = errors.New("redis credential backend requires a client or address")
)
