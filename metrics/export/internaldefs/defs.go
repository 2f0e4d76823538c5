package internaldefs

import (
	goGuard "github.com/MrEthical07/goGuard"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for export.
type HistogramDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goGuard.MetricLoginSuccess, Name: "goguard_login_success_total", Help: "Successful password logins."},
	{ID: goGuard.MetricLoginFailure, Name: "goguard_login_failure_total", Help: "Declined or failed password logins."},
	{ID: goGuard.MetricRegisterSuccess, Name: "goguard_register_success_total", Help: "Successful registrations."},
	{ID: goGuard.MetricRegisterFailure, Name: "goguard_register_failure_total", Help: "Declined or failed registrations."},
	{ID: goGuard.MetricFederatedLoginSuccess, Name: "goguard_federated_login_success_total", Help: "Successful federated token exchanges."},
	{ID: goGuard.MetricFederatedLoginFailure, Name: "goguard_federated_login_failure_total", Help: "Declined or failed federated token exchanges."},
	{ID: goGuard.MetricLogout, Name: "goguard_logout_total", Help: "Logout operations, explicit or forced."},
	{ID: goGuard.MetricForcedLogout, Name: "goguard_forced_logout_total", Help: "Sessions ended by the guard or the retry interceptor."},
	{ID: goGuard.MetricProfileFetchSuccess, Name: "goguard_profile_fetch_success_total", Help: "Successful profile fetches, per caller."},
	{ID: goGuard.MetricProfileFetchFailure, Name: "goguard_profile_fetch_failure_total", Help: "Failed profile fetches, per caller."},
	{ID: goGuard.MetricProfileFetchCoalesced, Name: "goguard_profile_fetch_coalesced_total", Help: "Profile fetch callers that shared an in-flight request."},
	{ID: goGuard.MetricProfileUpdateSuccess, Name: "goguard_profile_update_success_total", Help: "Successful profile updates."},
	{ID: goGuard.MetricProfileUpdateFailure, Name: "goguard_profile_update_failure_total", Help: "Failed profile updates."},
	{ID: goGuard.MetricPasswordChangeSuccess, Name: "goguard_password_change_success_total", Help: "Successful password changes."},
	{ID: goGuard.MetricPasswordChangeFailure, Name: "goguard_password_change_failure_total", Help: "Failed password changes."},
	{ID: goGuard.MetricRefreshSuccess, Name: "goguard_refresh_success_total", Help: "Successful token refreshes, per caller."},
	{ID: goGuard.MetricRefreshFailure, Name: "goguard_refresh_failure_total", Help: "Failed token refreshes, per caller."},
	{ID: goGuard.MetricRefreshCoalesced, Name: "goguard_refresh_coalesced_total", Help: "Refresh callers that shared an in-flight refresh."},
	{ID: goGuard.MetricGuardAdmit, Name: "goguard_guard_admit_total", Help: "Navigations admitted by the guard."},
	{ID: goGuard.MetricGuardRedirect, Name: "goguard_guard_redirect_total", Help: "Navigations redirected to a landing or fallback page."},
	{ID: goGuard.MetricGuardLoginRedirect, Name: "goguard_guard_login_redirect_total", Help: "Navigations redirected to the login page."},
	{ID: goGuard.MetricGuardForceLogout, Name: "goguard_guard_force_logout_total", Help: "Navigations that ended the session."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: goGuard.MetricRefreshLatency, Name: "goguard_refresh_latency_seconds", Help: "Token refresh latency."},
	{ID: goGuard.MetricProfileFetchLatency, Name: "goguard_profile_fetch_latency_seconds", Help: "Profile fetch latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const (
	AuditDroppedName = "goguard_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// BucketBounds are the finite upper bounds, in seconds, of the engine
// histogram buckets. The last engine bucket is +Inf.
var BucketBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// flatten buckets into separate instruments.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the engine bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
