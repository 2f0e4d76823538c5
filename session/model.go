package session

import "time"

// Status reports which network-bound operation a Manager is running.
type Status uint8

const (
	// StatusIdle means no operation is in flight.
	StatusIdle Status = iota
	// StatusAuthenticating covers login, registration, and federated login.
	StatusAuthenticating
	// StatusRefreshingToken covers a token refresh.
	StatusRefreshingToken
	// StatusFetchingProfile covers a profile fetch or update.
	StatusFetchingProfile
	// StatusLoggingOut covers logout.
	StatusLoggingOut
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAuthenticating:
		return "authenticating"
	case StatusRefreshingToken:
		return "refreshing_token"
	case StatusFetchingProfile:
		return "fetching_profile"
	case StatusLoggingOut:
		return "logging_out"
	default:
		return "unknown"
	}
}

// User is the authenticated identity. Values handed out by a Manager are shared
// between callers and must be treated as read-only.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Session is a point-in-time copy of the manager state.
type Session struct {
	User            *User
	AccessToken     string
	RefreshToken    string
	Status          Status
	AccessExpiresAt time.Time
}

// Authenticated reports whether both a token and a profile are present.
func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.User != nil
}

// Retention is the persisted lifetime, in days, of each token.
type Retention struct {
	AccessDays  int
	RefreshDays int
}

// DefaultRetention keeps the access token for 7 days and the refresh token for 30.
func DefaultRetention() Retention {
	return Retention{AccessDays: 7, RefreshDays: 30}
}
