package credential

import (
	"context"
	"log/slog"
	"time"
)

// Kind selects one of the two persisted credentials.
type Kind uint8

const (
	// AccessToken is the short-lived bearer token.
	AccessToken Kind = iota
	// RefreshToken is the long-lived token exchanged for a new pair.
	RefreshToken
)

func (k Kind) String() string {
	switch k {
	case AccessToken:
		return "access"
	case RefreshToken:
		return "refresh"
	default:
		return "unknown"
	}
}

const day = 24 * time.Hour

// Default backend keys.
const (
	DefaultAccessKey  = "hex_toolman_token"
	DefaultRefreshKey = "hex_toolman_refresh"
)

// Backend is the durable persistence contract. Implementations must be safe for
// concurrent use; writes are whole-value replacements so last-write-wins is fine.
type Backend interface {
	Write(ctx context.Context, key, value string, expiry time.Duration) error
	Read(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

// Keys maps credential kinds to backend keys.
type Keys struct {
	Access  string
	Refresh string
}

// DefaultKeys returns the stock key names.
func DefaultKeys() Keys {
	return Keys{Access: DefaultAccessKey, Refresh: DefaultRefreshKey}
}

// Store is the credential holder used by the session manager.
type Store struct {
	backend Backend
	keys    Keys
	logger  *slog.Logger
}

// Option configures a [Store].
type Option func(*Store)

// WithKeys overrides the backend key names. Empty fields keep their defaults.
func WithKeys(keys Keys) Option {
	return func(s *Store) {
		if keys.Access != "" {
			s.keys.Access = keys.Access
		}
		if keys.Refresh != "" {
			s.keys.Refresh = keys.Refresh
		}
	}
}

// WithLogger sets the logger used to report swallowed backend failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store over backend. A nil backend selects a fresh
// [MemoryBackend].
func NewStore(backend Backend, opts ...Option) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	s := &Store{
		backend: backend,
		keys:    DefaultKeys(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(kind Kind) string {
	if kind == RefreshToken {
		return s.keys.Refresh
	}
	return s.keys.Access
}

// Get returns the persisted token for kind. Backend errors read as absent.
func (s *Store) Get(ctx context.Context, kind Kind) (string, bool) {
	value, ok, err := s.backend.Read(ctx, s.key(kind))
	if err != nil {
		s.logger.WarnContext(ctx, "credential read failed", "kind", kind.String(), "error", err)
		return "", false
	}
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Set persists token for kind with an expiry of ttlDays days. Non-positive
// ttlDays persists for the backend's session lifetime.
func (s *Store) Set(ctx context.Context, kind Kind, token string, ttlDays int) {
	var expiry time.Duration
	if ttlDays > 0 {
		expiry = time.Duration(ttlDays) * day
	}
	if err := s.backend.Write(ctx, s.key(kind), token, expiry); err != nil {
		s.logger.WarnContext(ctx, "credential write failed", "kind", kind.String(), "error", err)
	}
}

// Clear evicts the persisted token for kind.
func (s *Store) Clear(ctx context.Context, kind Kind) {
	if err := s.backend.Delete(ctx, s.key(kind)); err != nil {
		s.logger.WarnContext(ctx, "credential clear failed", "kind", kind.String(), "error", err)
	}
}
