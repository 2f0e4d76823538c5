package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/goGuard/credential"
	"golang.org/x/sync/singleflight"
)

const (
	flightProfile = "profile"
	flightRefresh = "refresh"
)

// Option configures a [Manager].
type Option func(*Manager)

// WithRetention overrides the persisted token lifetimes.
func WithRetention(r Retention) Option {
	return func(m *Manager) {
		if r.AccessDays > 0 {
			m.retention.AccessDays = r.AccessDays
		}
		if r.RefreshDays > 0 {
			m.retention.RefreshDays = r.RefreshDays
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithEventSink installs a lifecycle event sink.
func WithEventSink(sink EventSink) Option {
	return func(m *Manager) {
		m.sink = sink
	}
}

// Manager owns the process-scoped session. All methods are safe for concurrent
// use; state is never held locked across a transport call.
type Manager struct {
	transport Transport
	creds     *credential.Store
	retention Retention
	logger    *slog.Logger
	sink      EventSink
	now       func() time.Time

	flights singleflight.Group

	// persistMu orders writes to creds with the in-memory state they mirror.
	persistMu sync.Mutex

	mu           sync.RWMutex
	user         *User
	accessToken  string
	refreshToken string
	accessExpiry time.Time
	status       Status
	lastErr      string
	// gen changes whenever the session is replaced or cleared. Results of
	// calls started under an older generation are discarded.
	gen uint64
}

// NewManager creates a manager and restores any persisted token pair from creds.
// A nil creds uses an in-memory store.
func NewManager(ctx context.Context, transport Transport, creds *credential.Store, opts ...Option) *Manager {
	if creds == nil {
		creds = credential.NewStore(nil)
	}
	m := &Manager{
		transport: transport,
		creds:     creds,
		retention: DefaultRetention(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if token, ok := creds.Get(ctx, credential.AccessToken); ok {
		m.accessToken = token
		m.accessExpiry = accessExpiry(token, time.Time{})
	}
	if token, ok := creds.Get(ctx, credential.RefreshToken); ok {
		m.refreshToken = token
	}
	return m
}

/*
====================================
READ ACCESS
====================================
*/

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Session{
		User:            m.user,
		AccessToken:     m.accessToken,
		RefreshToken:    m.refreshToken,
		Status:          m.status,
		AccessExpiresAt: m.accessExpiry,
	}
}

// User returns the loaded identity, or nil.
func (m *Manager) User() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// AccessToken returns the current bearer token, or "".
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken
}

// CurrentRole returns the loaded user's role, or "" without a profile.
func (m *Manager) CurrentRole() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return ""
	}
	return m.user.Role
}

// IsAuthenticated reports whether both a token and a profile are held.
func (m *Manager) IsAuthenticated() bool {
	return m.Snapshot().Authenticated()
}

// Status returns the operation currently in flight.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// LastError returns the message recorded by the last failed operation.
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// ClearError drops the recorded error message.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.lastErr = ""
	m.mu.Unlock()
}

/*
====================================
STATE HELPERS
====================================
*/

// begin marks status and clears the error state; the returned func restores
// Idle unless another operation has since taken over the status field.
func (m *Manager) begin(status Status) func() {
	m.mu.Lock()
	m.status = status
	m.lastErr = ""
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		if m.status == status {
			m.status = StatusIdle
		}
		m.mu.Unlock()
	}
}

func (m *Manager) fail(msg string) {
	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()
}

func (m *Manager) emit(ctx context.Context, event Event) {
	if m.sink != nil {
		m.sink(ctx, event)
	}
}

func (m *Manager) userID() string {
	if u := m.User(); u != nil {
		return u.ID
	}
	return ""
}

func (m *Manager) generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

func (m *Manager) persistTokens(ctx context.Context, access, refresh string) {
	m.creds.Set(ctx, credential.AccessToken, access, m.retention.AccessDays)
	m.creds.Set(ctx, credential.RefreshToken, refresh, m.retention.RefreshDays)
}

// establish replaces the whole session from a successful auth response.
func (m *Manager) establish(ctx context.Context, data *AuthData) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	m.user = data.User
	m.accessToken = data.AccessToken
	m.refreshToken = data.RefreshToken
	m.accessExpiry = accessExpiry(data.AccessToken, data.ExpiresAt)
	m.gen++
	m.mu.Unlock()

	m.persistTokens(ctx, data.AccessToken, data.RefreshToken)
}

func (m *Manager) clear(ctx context.Context) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	m.user = nil
	m.accessToken = ""
	m.refreshToken = ""
	m.accessExpiry = time.Time{}
	m.gen++
	m.mu.Unlock()

	m.creds.Clear(ctx, credential.AccessToken)
	m.creds.Clear(ctx, credential.RefreshToken)
}

/*
====================================
AUTHENTICATION
====================================
*/

// Login authenticates with password credentials. It reports false with a nil
// error when the service declines the credentials; the service message (or a
// default) is recorded as error state.
func (m *Manager) Login(ctx context.Context, req LoginRequest) (bool, error) {
	if err := req.validate(); err != nil {
		return false, err
	}
	return m.authenticate(ctx, EventLogin, MsgLoginFailed, false, func(ctx context.Context) (*AuthResponse, error) {
		return m.transport.Login(ctx, req)
	})
}

// Register creates an account and signs in with it.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (bool, error) {
	if err := req.validate(); err != nil {
		return false, err
	}
	return m.authenticate(ctx, EventRegister, MsgRegisterFailed, false, func(ctx context.Context) (*AuthResponse, error) {
		return m.transport.Register(ctx, req)
	})
}

// LoginWithFederatedToken exchanges a token from an external identity provider.
// Unlike Login, a declined exchange is returned as a [*SemanticError].
func (m *Manager) LoginWithFederatedToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, invalid(errEmptyFederatedToken)
	}
	return m.authenticate(ctx, EventFederatedLogin, MsgFederatedLoginFailed, true, func(ctx context.Context) (*AuthResponse, error) {
		return m.transport.LoginWithFederatedToken(ctx, token)
	})
}

func (m *Manager) authenticate(
	ctx context.Context,
	kind EventKind,
	fallback string,
	strict bool,
	call func(context.Context) (*AuthResponse, error),
) (bool, error) {
	done := m.begin(StatusAuthenticating)
	defer done()
	started := m.now()

	resp, err := call(ctx)
	if err != nil {
		m.fail(messageOr(err, fallback))
		m.emit(ctx, Event{Kind: kind, Err: err, Duration: m.now().Sub(started)})
		return false, err
	}

	if !resp.ok() {
		msg := fallback
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		m.fail(msg)
		semErr := &SemanticError{Message: msg}
		m.emit(ctx, Event{Kind: kind, Err: semErr, Duration: m.now().Sub(started)})
		if strict {
			return false, semErr
		}
		return false, nil
	}

	m.establish(ctx, resp.Data)
	m.emit(ctx, Event{Kind: kind, UserID: m.userID(), Success: true, Duration: m.now().Sub(started)})
	return true, nil
}

// Logout ends the session. The remote call is best-effort; local state and both
// persisted credentials are cleared regardless of its outcome. Without a held
// token pair there is nothing to revoke: the remote call and the logout event
// are skipped.
func (m *Manager) Logout(ctx context.Context) {
	done := m.begin(StatusLoggingOut)
	defer done()
	started := m.now()

	m.mu.RLock()
	held := m.accessToken != "" || m.refreshToken != ""
	userID := userIDOf(m.user)
	m.mu.RUnlock()

	var remoteErr error
	if held && m.transport != nil {
		if _, err := m.transport.Logout(ctx); err != nil {
			remoteErr = err
			m.logger.WarnContext(ctx, "remote logout failed", "error", err)
		}
	}

	m.clear(ctx)
	if !held {
		return
	}
	m.emit(ctx, Event{Kind: EventLogout, UserID: userID, Success: true, Err: remoteErr, Duration: m.now().Sub(started)})
}

/*
====================================
PROFILE
====================================
*/

// FetchProfile loads the identity for the held token. Without a token it is a
// no-op returning (nil, nil). Concurrent callers share one round-trip and
// receive the same *User or error. An authentication fault logs the session
// out before the error is returned.
func (m *Manager) FetchProfile(ctx context.Context) (*User, error) {
	if m.AccessToken() == "" {
		return nil, nil
	}

	started := m.now()
	v, err, shared := m.flights.Do(flightProfile, func() (interface{}, error) {
		return m.fetchProfile(context.WithoutCancel(ctx))
	})
	user, _ := v.(*User)
	m.emit(ctx, Event{
		Kind:     EventProfileFetch,
		UserID:   userIDOf(user),
		Success:  err == nil,
		Shared:   shared,
		Err:      err,
		Duration: m.now().Sub(started),
	})
	return user, err
}

func (m *Manager) fetchProfile(ctx context.Context) (*User, error) {
	done := m.begin(StatusFetchingProfile)
	defer done()
	gen := m.generation()

	resp, err := m.transport.GetProfile(ctx)
	if err == nil && (resp == nil || !resp.Success || resp.Data == nil) {
		msg := ""
		if resp != nil {
			msg = resp.Message
		}
		err = &SemanticError{Message: msg}
	}
	if err != nil {
		m.fail(messageOr(err, MsgProfileFailed))
		if IsAuthenticationFault(err) && m.generation() == gen {
			m.Logout(ctx)
			m.fail(messageOr(err, MsgProfileFailed))
		}
		return nil, err
	}

	m.mu.Lock()
	if m.gen == gen && m.accessToken != "" {
		m.user = resp.Data
	}
	m.mu.Unlock()
	return resp.Data, nil
}

// UpdateProfile saves editable profile fields and replaces the held identity.
// When the service answers without a user body the profile is fetched again.
func (m *Manager) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	if err := update.validate(); err != nil {
		return nil, err
	}
	if m.AccessToken() == "" {
		return nil, ErrNoSession
	}

	done := m.begin(StatusFetchingProfile)
	started := m.now()
	gen := m.generation()
	resp, err := m.transport.UpdateProfile(ctx, update)
	if err == nil && (resp == nil || !resp.Success) {
		msg := MsgProfileUpdateFailed
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		err = &SemanticError{Message: msg}
	}
	if err != nil {
		m.fail(messageOr(err, MsgProfileUpdateFailed))
		done()
		m.emit(ctx, Event{Kind: EventProfileUpdate, UserID: m.userID(), Err: err, Duration: m.now().Sub(started)})
		return nil, err
	}

	if resp.Data == nil {
		done()
		m.emit(ctx, Event{Kind: EventProfileUpdate, UserID: m.userID(), Success: true, Duration: m.now().Sub(started)})
		return m.FetchProfile(ctx)
	}

	m.mu.Lock()
	if m.gen == gen && m.accessToken != "" {
		m.user = resp.Data
	}
	m.mu.Unlock()
	done()
	m.emit(ctx, Event{Kind: EventProfileUpdate, UserID: resp.Data.ID, Success: true, Duration: m.now().Sub(started)})
	return resp.Data, nil
}

// ChangePassword changes the account password. Session state is untouched.
func (m *Manager) ChangePassword(ctx context.Context, change PasswordChange) error {
	if err := change.validate(); err != nil {
		return err
	}
	if m.AccessToken() == "" {
		return ErrNoSession
	}
	m.ClearError()
	started := m.now()

	resp, err := m.transport.ChangePassword(ctx, change)
	if err == nil && (resp == nil || !resp.Success) {
		msg := MsgPasswordChangeFailed
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		err = &SemanticError{Message: msg}
	}
	if err != nil {
		m.fail(messageOr(err, MsgPasswordChangeFailed))
	}
	m.emit(ctx, Event{Kind: EventPasswordChange, UserID: m.userID(), Success: err == nil, Err: err, Duration: m.now().Sub(started)})
	return err
}

/*
====================================
REFRESH
====================================
*/

// RefreshAuthToken renews the token pair and returns the new access token.
// Concurrent callers share one refresh and observe the same token or error.
// Failure returns ("", err) wrapping [ErrRefreshFailed] and leaves the session
// in place; tearing it down is the caller's decision.
func (m *Manager) RefreshAuthToken(ctx context.Context) (string, error) {
	started := m.now()
	v, err, shared := m.flights.Do(flightRefresh, func() (interface{}, error) {
		return m.refresh(context.WithoutCancel(ctx))
	})
	token, _ := v.(string)
	m.emit(ctx, Event{
		Kind:     EventRefresh,
		UserID:   m.userID(),
		Success:  err == nil,
		Shared:   shared,
		Err:      err,
		Duration: m.now().Sub(started),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	done := m.begin(StatusRefreshingToken)
	defer done()

	m.mu.RLock()
	refreshToken := m.refreshToken
	gen := m.gen
	m.mu.RUnlock()

	resp, err := m.transport.Refresh(ctx, refreshToken)
	if err != nil {
		m.logger.WarnContext(ctx, "token refresh failed", "error", err)
		return "", refreshFailed(err)
	}
	if !resp.ok() || resp.Data.AccessToken == "" {
		msg := ""
		if resp != nil {
			msg = resp.Message
		}
		return "", refreshFailed(&SemanticError{Message: msg})
	}

	data := resp.Data
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.logger.InfoContext(ctx, "discarding refresh result for a replaced session")
		return "", refreshFailed(ErrNoSession)
	}
	m.accessToken = data.AccessToken
	if data.RefreshToken != "" {
		m.refreshToken = data.RefreshToken
	}
	m.accessExpiry = accessExpiry(data.AccessToken, data.ExpiresAt)
	refreshToken = m.refreshToken
	m.mu.Unlock()

	m.persistTokens(ctx, data.AccessToken, refreshToken)
	return data.AccessToken, nil
}

func userIDOf(u *User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
