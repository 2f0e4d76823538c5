package goGuard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goGuard/credential"
	"github.com/MrEthical07/goGuard/guard"
	"github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/permission"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/transport"
)

// Builder assembles an [Engine]. A Builder may be used once.
type Builder struct {
	config Config

	redis     redis.UniversalClient
	backend   credential.Backend
	table     *permission.Table
	routes    []guard.RouteDef
	transport session.Transport
	base      http.RoundTripper
	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client for the redis credential backend. The engine
// does not close a client it did not create.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialBackend installs a custom backend, overriding Credentials.Backend.
func (b *Builder) WithCredentialBackend(backend credential.Backend) *Builder {
	b.backend = backend
	return b
}

// WithPermissionTable overrides Permissions.File and the built-in table.
func (b *Builder) WithPermissionTable(table *permission.Table) *Builder {
	b.table = table
	return b
}

// WithRoutes replaces the default dashboard routes.
func (b *Builder) WithRoutes(defs ...guard.RouteDef) *Builder {
	b.routes = append([]guard.RouteDef(nil), defs...)
	return b
}

// WithTransport replaces the HTTP auth client. The engine's HTTP client and
// interceptor are still built for business calls.
func (b *Builder) WithTransport(t session.Transport) *Builder {
	b.transport = t
	return b
}

// WithRoundTripper sets the base round tripper below the auth interceptor.
func (b *Builder) WithRoundTripper(rt http.RoundTripper) *Builder {
	b.base = rt
	return b
}

// WithAuditSink sets the audit sink. Audit must be enabled in the config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger handed to every component.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency histograms; it implies metrics.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	if enabled {
		b.config.Metrics.Enabled = true
	}
	return b
}

// Build validates the configuration and wires the engine. ctx bounds the
// restore of persisted tokens.
func (b *Builder) Build(ctx context.Context) (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	b.built = true

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Transport.BaseURL == "" && b.transport == nil {
		return nil, ErrNoTransport
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- PERMISSION TABLE --------
	table := b.table
	if table == nil && cfg.Permissions.File != "" {
		var err error
		if table, err = permission.Load(cfg.Permissions.File); err != nil {
			return nil, err
		}
	}
	if table == nil {
		table = permission.Default()
	}
	if missing := table.MissingRoles(); len(missing) > 0 {
		logger.Warn("permission table has no entry for some roles; they resolve to no access",
			slog.Any("roles", missing))
	}

	e := &Engine{
		config:  cfg,
		logger:  logger,
		table:   table,
		metrics: NewMetrics(cfg.Metrics),
	}
	if cfg.Audit.Enabled {
		e.audit = audit.NewDispatcher(audit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Retain:     cfg.Audit.RetainTypes,
		}, b.auditSink)
	}

	// -------- CREDENTIALS --------
	backend, jar, err := b.credentialBackend(cfg, e)
	if err != nil {
		e.Close()
		return nil, err
	}
	creds := credential.NewStore(backend,
		credential.WithKeys(credential.Keys{Access: cfg.Credentials.AccessKey, Refresh: cfg.Credentials.RefreshKey}),
		credential.WithLogger(logger),
	)

	// -------- TRANSPORT --------
	e.interceptor = transport.NewInterceptor(b.base)
	e.interceptor.Logger = logger
	e.interceptor.OnUnauthenticated = e.onUnauthenticated
	e.httpClient = &http.Client{Transport: e.interceptor, Timeout: cfg.Transport.Timeout, Jar: jar}

	tr := b.transport
	if tr == nil {
		client, err := transport.NewClient(cfg.Transport.BaseURL,
			transport.WithHTTPClient(e.httpClient),
			transport.WithLogger(logger),
		)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.client = client
		tr = client
	}

	// -------- SESSION / PERMISSIONS / GUARD --------
	e.session = session.NewManager(ctx, tr, creds,
		session.WithRetention(session.Retention{
			AccessDays:  cfg.Session.AccessRetentionDays,
			RefreshDays: cfg.Session.RefreshRetentionDays,
		}),
		session.WithLogger(logger),
		session.WithEventSink(e.onSessionEvent),
	)
	e.interceptor.Bind(e.session)
	e.checker = permission.NewChecker(table, e.session)

	routes := b.routes
	if routes == nil {
		routes = guard.DefaultRoutes()
	}
	e.routes = guard.NewRouteTable(cfg.Guard.PublicPaths, routes...)
	e.guard = guard.New(e.session, e.checker, guard.Config{
		LoginPath:         cfg.Guard.LoginPath,
		ReturnQueryKey:    cfg.Guard.ReturnQueryKey,
		RootFallback:      cfg.Guard.RootFallback,
		DashboardFallback: cfg.Guard.DashboardFallback,
		Logger:            logger,
	})

	return e, nil
}

// credentialBackend resolves the configured backend. The returned jar is
// non-nil for the cookie backend so the HTTP client shares it.
func (b *Builder) credentialBackend(cfg Config, e *Engine) (credential.Backend, http.CookieJar, error) {
	if b.backend != nil {
		return b.backend, nil, nil
	}

	switch cfg.Credentials.Backend {
	case CredentialCookie:
		cb, err := credential.NewCookieBackend(cfg.Credentials.CookieOrigin, credential.CookieOptions{
			Path:     cfg.Credentials.CookiePath,
			Secure:   cfg.Credentials.CookieSecure,
			SameSite: cfg.Credentials.CookieSameSite,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return cb, cb.Jar(), nil

	case CredentialRedis:
		client := b.redis
		if client == nil {
			if cfg.Credentials.RedisAddr == "" {
				return nil, nil, ErrRedisRequired
			}
			owned := redis.NewClient(&redis.Options{Addr: cfg.Credentials.RedisAddr})
			e.ownedRedis = owned
			client = owned
		}
		return credential.NewRedisBackend(client, cfg.Credentials.RedisPrefix), nil, nil

	default:
		return credential.NewMemoryBackend(), nil, nil
	}
}
