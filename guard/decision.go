package guard

import "net/url"

// Outcome is the kind of navigation decision.
type Outcome int

const (
	OutcomeAdmit Outcome = iota
	OutcomeRedirect
	OutcomeRedirectLogin
	OutcomeRedirectLoginWithReturn
	OutcomeForceLogout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdmit:
		return "admit"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeRedirectLogin:
		return "redirect_login"
	case OutcomeRedirectLoginWithReturn:
		return "redirect_login_with_return"
	case OutcomeForceLogout:
		return "force_logout"
	default:
		return "unknown"
	}
}

// Decision is the single result of a guard evaluation.
type Decision struct {
	Outcome Outcome
	// Path is the destination for every outcome except admit.
	Path  string
	Query url.Values
	// Replace reports whether the redirect should replace the history entry.
	Replace bool
	// Reason names the rule that produced the decision.
	Reason string
}

// Allowed reports whether navigation continues to the requested target.
func (d Decision) Allowed() bool { return d.Outcome == OutcomeAdmit }

// Location renders the redirect destination with its query.
func (d Decision) Location() string {
	if len(d.Query) == 0 {
		return d.Path
	}
	return d.Path + "?" + d.Query.Encode()
}

// Reasons recorded in [Decision.Reason], in rule order.
const (
	ReasonRootNoToken         = "root_no_token"
	ReasonRootProfileFailed   = "root_profile_failed"
	ReasonRootLanding         = "root_landing"
	ReasonLoginProfileFailed  = "login_profile_failed"
	ReasonLoginAuthenticated  = "login_authenticated"
	ReasonPublic              = "public"
	ReasonNoToken             = "no_token"
	ReasonProfileFailed       = "profile_failed"
	ReasonDashboardLanding    = "dashboard_landing"
	ReasonDashboardFallback   = "dashboard_fallback"
	ReasonForbiddenFallback   = "forbidden_fallback"
	ReasonForbiddenNoFallback = "forbidden_no_fallback"
	ReasonAllowed             = "allowed"
)
