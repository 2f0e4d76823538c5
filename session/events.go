package session

import (
	"context"
	"time"
)

// EventKind names a session lifecycle outcome.
type EventKind uint8

const (
	EventLogin EventKind = iota
	EventRegister
	EventFederatedLogin
	EventLogout
	EventProfileFetch
	EventProfileUpdate
	EventPasswordChange
	EventRefresh
)

func (k EventKind) String() string {
	switch k {
	case EventLogin:
		return "login"
	case EventRegister:
		return "register"
	case EventFederatedLogin:
		return "federated_login"
	case EventLogout:
		return "logout"
	case EventProfileFetch:
		return "profile_fetch"
	case EventProfileUpdate:
		return "profile_update"
	case EventPasswordChange:
		return "password_change"
	case EventRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Event describes one completed operation. Shared is set for callers that
// joined an in-flight call instead of starting one.
type Event struct {
	Kind     EventKind
	UserID   string
	Success  bool
	Shared   bool
	Err      error
	Duration time.Duration
}

// EventSink receives lifecycle events synchronously; it must not block.
type EventSink func(ctx context.Context, event Event)
