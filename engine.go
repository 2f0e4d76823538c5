package goGuard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goGuard/guard"
	"github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/permission"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/transport"
)

// Engine is a wired session, permission checker, and navigation guard.
type Engine struct {
	config      Config
	logger      *slog.Logger
	table       *permission.Table
	session     *session.Manager
	checker     *permission.Checker
	guard       *guard.Guard
	routes      *guard.RouteTable
	interceptor *transport.Interceptor
	client      *transport.Client
	httpClient  *http.Client
	audit       *audit.Dispatcher
	metrics     *Metrics
	ownedRedis  *redis.Client
}

// Close flushes the audit dispatcher and releases owned connections.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.httpClient != nil {
		e.httpClient.CloseIdleConnections()
	}
	if e.ownedRedis != nil {
		_ = e.ownedRedis.Close()
	}
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config { return cloneConfig(e.config) }

// Session returns the session manager.
func (e *Engine) Session() *session.Manager { return e.session }

// Permissions returns the checker bound to the current session role.
func (e *Engine) Permissions() *permission.Checker { return e.checker }

// Guard returns the navigation guard.
func (e *Engine) Guard() *guard.Guard { return e.guard }

// Routes returns the route table used by Navigate.
func (e *Engine) Routes() *guard.RouteTable { return e.routes }

// HTTPClient returns a client that attaches the session bearer token and
// recovers from expired access tokens. Use it for business API calls.
func (e *Engine) HTTPClient() *http.Client { return e.httpClient }

// API returns the JSON client for the auth service, or nil when a custom
// transport was supplied.
func (e *Engine) API() *transport.Client { return e.client }

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDroppedByType returns the audit drop counts keyed by event type.
func (e *Engine) AuditDroppedByType() map[string]uint64 {
	if e == nil {
		return nil
	}
	return e.audit.DroppedByType()
}

// MetricsSnapshot returns current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Navigate resolves both URLs against the route table and runs the guard.
func (e *Engine) Navigate(ctx context.Context, target, from string) guard.Decision {
	to := e.routes.Resolve(target)
	var cur guard.Route
	if from != "" {
		cur = e.routes.Resolve(from)
	}
	d := e.guard.Check(ctx, to, cur)
	e.recordDecision(ctx, to, d)
	return d
}

func (e *Engine) recordDecision(ctx context.Context, to guard.Route, d guard.Decision) {
	switch d.Outcome {
	case guard.OutcomeAdmit:
		e.metricInc(MetricGuardAdmit)
	case guard.OutcomeRedirect:
		e.metricInc(MetricGuardRedirect)
	case guard.OutcomeRedirectLogin, guard.OutcomeRedirectLoginWithReturn:
		e.metricInc(MetricGuardLoginRedirect)
	case guard.OutcomeForceLogout:
		e.metricInc(MetricGuardForceLogout)
		e.metricInc(MetricForcedLogout)
	}

	if (d.Outcome == guard.OutcomeRedirect && d.Reason == guard.ReasonForbiddenFallback) || d.Outcome == guard.OutcomeForceLogout {
		e.emitAudit(ctx, AuditEvent{
			EventType: AuditNavigationDenied,
			UserID:    e.userID(),
			Metadata: map[string]string{
				"target":   to.FullPath,
				"outcome":  d.Outcome.String(),
				"location": d.Location(),
				"reason":   d.Reason,
			},
		})
	}
}

/*
====================================
SESSION EVENTS
====================================
*/

func (e *Engine) onSessionEvent(ctx context.Context, ev session.Event) {
	var okID, failID MetricID
	var okType, failType string
	audited := true

	switch ev.Kind {
	case session.EventLogin:
		okID, failID = MetricLoginSuccess, MetricLoginFailure
		okType, failType = AuditLoginSuccess, AuditLoginFailure
	case session.EventRegister:
		okID, failID = MetricRegisterSuccess, MetricRegisterFailure
		okType, failType = AuditRegisterSuccess, AuditRegisterFailure
	case session.EventFederatedLogin:
		okID, failID = MetricFederatedLoginSuccess, MetricFederatedLoginFailure
		okType, failType = AuditFederatedLoginSuccess, AuditFederatedLoginFailure
	case session.EventLogout:
		okID, failID = MetricLogout, MetricLogout
		okType, failType = AuditLogout, AuditLogout
	case session.EventProfileFetch:
		okID, failID = MetricProfileFetchSuccess, MetricProfileFetchFailure
		failType = AuditProfileFetchFailure
		audited = !ev.Success
		if ev.Shared {
			e.metricInc(MetricProfileFetchCoalesced)
		}
		e.observe(MetricProfileFetchLatency, ev)
	case session.EventProfileUpdate:
		okID, failID = MetricProfileUpdateSuccess, MetricProfileUpdateFailure
		okType, failType = AuditProfileUpdate, AuditProfileUpdate
	case session.EventPasswordChange:
		okID, failID = MetricPasswordChangeSuccess, MetricPasswordChangeFailure
		okType, failType = AuditPasswordChange, AuditPasswordChange
	case session.EventRefresh:
		okID, failID = MetricRefreshSuccess, MetricRefreshFailure
		okType, failType = AuditRefreshSuccess, AuditRefreshFailure
		if ev.Shared {
			e.metricInc(MetricRefreshCoalesced)
		}
		e.observe(MetricRefreshLatency, ev)
	default:
		return
	}

	if ev.Success {
		e.metricInc(okID)
	} else {
		e.metricInc(failID)
	}

	if !audited {
		return
	}
	event := AuditEvent{
		EventType: okType,
		UserID:    ev.UserID,
		Success:   ev.Success,
		Shared:    ev.Shared,
		Duration:  ev.Duration,
	}
	if !ev.Success {
		event.EventType = failType
	}
	if ev.Err != nil {
		event.Error = auditErrorCode(ev.Err)
	}
	e.emitAudit(ctx, event)
}

func (e *Engine) onUnauthenticated(ctx context.Context, err error) {
	e.metricInc(MetricForcedLogout)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditForcedLogout,
		Error:     auditErrorCode(err),
	})
}

// auditErrorCode maps an error onto a stable code. Raw messages may carry
// server text and are not recorded.
func auditErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, session.ErrRefreshFailed):
		return "refresh_failed"
	case session.IsAuthenticationFault(err):
		return "unauthenticated"
	case errors.Is(err, session.ErrUnreachable):
		return "unreachable"
	case errors.Is(err, session.ErrSemanticFailure):
		return "declined"
	case errors.Is(err, session.ErrNoSession):
		return "no_session"
	default:
		return "error"
	}
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	e.audit.Emit(ctx, event)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, ev session.Event) {
	if e.metrics == nil {
		return
	}
	e.metrics.Observe(id, ev.Duration)
}

func (e *Engine) userID() string {
	if u := e.session.User(); u != nil {
		return u.ID
	}
	return ""
}
