package goGuard

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goGuard/credential"
	"github.com/MrEthical07/goGuard/guard"
	"github.com/MrEthical07/goGuard/session"
)

// Config is the full engine configuration. Obtain defaults from
// [DefaultConfig] and override fields before passing it to [Builder.WithConfig].
type Config struct {
	Transport   TransportConfig
	Credentials CredentialConfig
	Session     SessionConfig
	Guard       GuardConfig
	Permissions PermissionsConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig locates the auth service.
type TransportConfig struct {
	BaseURL string
	Timeout time.Duration
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialBackend names a token persistence backend.
type CredentialBackend string

const (
	CredentialMemory CredentialBackend = "memory"
	CredentialCookie CredentialBackend = "cookie"
	CredentialRedis  CredentialBackend = "redis"
)

// CredentialConfig selects and configures token persistence.
type CredentialConfig struct {
	Backend    CredentialBackend
	AccessKey  string
	RefreshKey string

	// Cookie backend.
	CookieOrigin   string
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite

	// Redis backend. A client passed to Builder.WithRedis wins over RedisAddr.
	RedisAddr   string
	RedisPrefix string
}

/*
====================================
SESSION / GUARD CONFIG
====================================
*/

// SessionConfig controls token retention.
type SessionConfig struct {
	AccessRetentionDays  int
	RefreshRetentionDays int
}

// GuardConfig holds the navigation destinations.
type GuardConfig struct {
	LoginPath         string
	ReturnQueryKey    string
	RootFallback      string
	DashboardFallback string
	PublicPaths       []string
}

// PermissionsConfig locates the role table. An empty File uses the built-in table.
type PermissionsConfig struct {
	File string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// RetainTypes are event types never dropped under DropIfFull.
	RetainTypes []string
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	retention := session.DefaultRetention()
	guardDefaults := guard.DefaultConfig()
	return Config{
		Transport: TransportConfig{
			Timeout: 10 * time.Second,
		},
		Credentials: CredentialConfig{
			Backend:        CredentialMemory,
			AccessKey:      credential.DefaultAccessKey,
			RefreshKey:     credential.DefaultRefreshKey,
			CookiePath:     "/",
			CookieSameSite: http.SameSiteLaxMode,
			RedisPrefix:    "gg",
		},
		Session: SessionConfig{
			AccessRetentionDays:  retention.AccessDays,
			RefreshRetentionDays: retention.RefreshDays,
		},
		Guard: GuardConfig{
			LoginPath:         guardDefaults.LoginPath,
			ReturnQueryKey:    guardDefaults.ReturnQueryKey,
			RootFallback:      guardDefaults.RootFallback,
			DashboardFallback: guardDefaults.DashboardFallback,
			PublicPaths:       append([]string(nil), guard.DefaultPublicPaths...),
		},
		Audit: AuditConfig{
			Enabled:     false,
			BufferSize:  1024,
			DropIfFull:  true,
			RetainTypes: []string{AuditLogout, AuditForcedLogout},
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Guard.PublicPaths = append([]string(nil), cfg.Guard.PublicPaths...)
	out.Audit.RetainTypes = append([]string(nil), cfg.Audit.RetainTypes...)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	// Transport
	if c.Transport.Timeout <= 0 {
		return invalid("Transport Timeout must be > 0")
	}
	if c.Transport.BaseURL != "" &&
		!strings.HasPrefix(c.Transport.BaseURL, "http://") &&
		!strings.HasPrefix(c.Transport.BaseURL, "https://") {
		return invalid("Transport BaseURL must be http or https")
	}

	// Credentials
	switch c.Credentials.Backend {
	case CredentialMemory, CredentialRedis:
	case CredentialCookie:
		if c.Credentials.CookieOrigin == "" {
			return invalid("Credentials CookieOrigin is required for the cookie backend")
		}
	default:
		return invalid("Credentials Backend %q is not one of memory, cookie, redis", c.Credentials.Backend)
	}
	if c.Credentials.AccessKey == "" || c.Credentials.RefreshKey == "" {
		return invalid("Credentials AccessKey and RefreshKey must be set")
	}
	if c.Credentials.AccessKey == c.Credentials.RefreshKey {
		return invalid("Credentials AccessKey and RefreshKey must differ")
	}

	// Session
	if c.Session.AccessRetentionDays <= 0 || c.Session.RefreshRetentionDays <= 0 {
		return invalid("Session retention days must be > 0")
	}

	// Guard
	for name, p := range map[string]string{
		"LoginPath":         c.Guard.LoginPath,
		"RootFallback":      c.Guard.RootFallback,
		"DashboardFallback": c.Guard.DashboardFallback,
	} {
		if !strings.HasPrefix(p, "/") {
			return invalid("Guard %s must be an absolute path", name)
		}
	}
	if c.Guard.ReturnQueryKey == "" {
		return invalid("Guard ReturnQueryKey must be set")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalid("Audit BufferSize must be > 0 when enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return invalid("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}
