package goGuard

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/goGuard/internal/audit"
)

// AuditEvent is one session lifecycle record.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink delivers audit events on a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// LoggerSink writes audit events as structured log records.
type LoggerSink = audit.LoggerSink

// NewChannelSink creates a channel sink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink { return audit.NewChannelSink(buffer) }

// NewJSONWriterSink creates a JSON-lines sink over w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }

// NewLoggerSink creates a sink that logs through logger.
func NewLoggerSink(logger *slog.Logger) *LoggerSink { return audit.NewLoggerSink(logger) }

// Audit event types.
const (
	AuditLoginSuccess          = "login_success"
	AuditLoginFailure          = "login_failure"
	AuditRegisterSuccess       = "register_success"
	AuditRegisterFailure       = "register_failure"
	AuditFederatedLoginSuccess = "federated_login_success"
	AuditFederatedLoginFailure = "federated_login_failure"
	AuditLogout                = "logout"
	AuditForcedLogout          = "forced_logout"
	AuditProfileFetchFailure   = "profile_fetch_failure"
	AuditProfileUpdate         = "profile_update"
	AuditPasswordChange        = "password_change"
	AuditRefreshSuccess        = "refresh_success"
	AuditRefreshFailure        = "refresh_failure"
	AuditNavigationDenied      = "navigation_denied"
)
