package guard

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/MrEthical07/goGuard/session"
)

// SessionManager is the part of the session the guard consults.
type SessionManager interface {
	AccessToken() string
	User() *session.User
	FetchProfile(ctx context.Context) (*session.User, error)
	Logout(ctx context.Context)
}

// Authorizer answers route checks for the role in effect.
type Authorizer interface {
	CanAccessRoute(path string) bool
	AllowedPaths() []string
}

// Config holds the guard's fixed destinations.
type Config struct {
	LoginPath string
	// ReturnQueryKey carries the originally requested path to the login page.
	ReturnQueryKey string
	// RootFallback is used when the role lists no allowed path.
	RootFallback string
	// DashboardFallback is the default leaf under the dashboard placeholder.
	DashboardFallback string
	Logger            *slog.Logger
}

// DefaultConfig returns the dashboard destinations.
func DefaultConfig() Config {
	return Config{
		LoginPath:         "/login",
		ReturnQueryKey:    "redirect",
		RootFallback:      "/dashboard",
		DashboardFallback: "/dashboard/schedule/new",
	}
}

// Guard evaluates navigations.
type Guard struct {
	cfg      Config
	sessions SessionManager
	perms    Authorizer
	logger   *slog.Logger
}

// New creates a guard. Empty config fields take their defaults.
func New(sessions SessionManager, perms Authorizer, cfg Config) *Guard {
	def := DefaultConfig()
	if cfg.LoginPath == "" {
		cfg.LoginPath = def.LoginPath
	}
	if cfg.ReturnQueryKey == "" {
		cfg.ReturnQueryKey = def.ReturnQueryKey
	}
	if cfg.RootFallback == "" {
		cfg.RootFallback = def.RootFallback
	}
	if cfg.DashboardFallback == "" {
		cfg.DashboardFallback = def.DashboardFallback
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{cfg: cfg, sessions: sessions, perms: perms, logger: logger}
}

// Config returns the effective configuration.
func (g *Guard) Config() Config { return g.cfg }

// Check decides the navigation from `from` to `to`.
func (g *Guard) Check(ctx context.Context, to, from Route) Decision {
	d := g.check(ctx, to)
	g.logger.DebugContext(ctx, "guard decision",
		slog.String("from", from.FullPath),
		slog.String("to", to.FullPath),
		slog.String("outcome", d.Outcome.String()),
		slog.String("location", d.Location()),
		slog.String("reason", d.Reason),
	)
	return d
}

func (g *Guard) check(ctx context.Context, to Route) Decision {
	hasToken := g.sessions.AccessToken() != ""

	if to.Kind == KindRootRedirect {
		if !hasToken {
			return g.toLogin(ReasonRootNoToken)
		}
		if !g.ensureProfile(ctx) {
			return g.forceLogout(ctx, ReasonRootProfileFailed)
		}
		return g.redirect(g.landing(), ReasonRootLanding)
	}

	if to.Public {
		if to.Path == g.cfg.LoginPath && hasToken {
			// Fetch failures leave the user on the login page to avoid a loop.
			if !g.ensureProfile(ctx) {
				return admit(ReasonLoginProfileFailed)
			}
			return g.redirect(g.landing(), ReasonLoginAuthenticated)
		}
		return admit(ReasonPublic)
	}

	if !hasToken {
		return Decision{
			Outcome: OutcomeRedirectLoginWithReturn,
			Path:    g.cfg.LoginPath,
			Query:   url.Values{g.cfg.ReturnQueryKey: []string{to.FullPath}},
			Reason:  ReasonNoToken,
		}
	}

	if g.sessions.User() == nil && !g.ensureProfile(ctx) {
		return g.forceLogout(ctx, ReasonProfileFailed)
	}

	if to.Kind == KindDashboardRedirect {
		if p, ok := g.firstAllowedExcept(to.Parent); ok {
			return g.redirect(p, ReasonDashboardLanding)
		}
		return g.redirect(g.cfg.DashboardFallback, ReasonDashboardFallback)
	}

	if !g.perms.CanAccessRoute(to.EffectivePermissionPath()) {
		if p, ok := g.firstAllowedExcept(to.Path); ok {
			return g.redirect(p, ReasonForbiddenFallback)
		}
		return g.forceLogout(ctx, ReasonForbiddenNoFallback)
	}

	return admit(ReasonAllowed)
}

// ensureProfile loads the profile when it is missing.
func (g *Guard) ensureProfile(ctx context.Context) bool {
	if g.sessions.User() != nil {
		return true
	}
	u, err := g.sessions.FetchProfile(ctx)
	if err != nil {
		g.logger.DebugContext(ctx, "guard profile fetch failed", slog.Any("error", err))
		return false
	}
	return u != nil
}

func (g *Guard) landing() string {
	if p, ok := g.firstAllowedExcept(""); ok {
		return p
	}
	return g.cfg.RootFallback
}

// firstAllowedExcept returns the first allowed path not equal to exclude.
// Entries are returned as listed, patterns included.
func (g *Guard) firstAllowedExcept(exclude string) (string, bool) {
	for _, p := range g.perms.AllowedPaths() {
		if p != exclude {
			return p, true
		}
	}
	return "", false
}

func (g *Guard) toLogin(reason string) Decision {
	return Decision{Outcome: OutcomeRedirectLogin, Path: g.cfg.LoginPath, Replace: true, Reason: reason}
}

func (g *Guard) forceLogout(ctx context.Context, reason string) Decision {
	g.sessions.Logout(ctx)
	return Decision{Outcome: OutcomeForceLogout, Path: g.cfg.LoginPath, Replace: true, Reason: reason}
}

func (g *Guard) redirect(path, reason string) Decision {
	return Decision{Outcome: OutcomeRedirect, Path: path, Replace: true, Reason: reason}
}

func admit(reason string) Decision {
	return Decision{Outcome: OutcomeAdmit, Reason: reason}
}
