package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/MrEthical07/goGuard/guard"
)

// Navigator decides page navigations. [*goGuard.Engine] implements it.
type Navigator interface {
	Navigate(ctx context.Context, target, from string) guard.Decision
}

type decisionContextKey struct{}

// DecisionFromContext returns the admit decision stored by [Guard].
func DecisionFromContext(ctx context.Context) (guard.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(guard.Decision)
	return d, ok
}

// Guard runs every GET and HEAD page request through nav. Admitted requests
// reach next with the decision in their context; every other outcome becomes
// a redirect to the decision's location. Other methods pass through.
func Guard(nav Navigator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if nav == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			d := nav.Navigate(r.Context(), r.URL.RequestURI(), refererPath(r))
			if !d.Allowed() {
				http.Redirect(w, r, d.Location(), redirectStatus(d))
				return
			}

			ctx := context.WithValue(r.Context(), decisionContextKey{}, d)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// redirectStatus maps a history-replacing decision onto 303 and a push onto
// 302.
func redirectStatus(d guard.Decision) int {
	if d.Replace {
		return http.StatusSeeOther
	}
	return http.StatusFound
}

// refererPath keeps only same-origin referers, reduced to path and query.
func refererPath(r *http.Request) string {
	raw := r.Referer()
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return ""
	}
	return u.RequestURI()
}
