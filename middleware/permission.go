package middleware

import (
	"net/http"

	"github.com/MrEthical07/goGuard/permission"
)

// Authorizer answers feature checks for the role in effect.
type Authorizer interface {
	HasPermission(feature permission.Feature, action string) bool
}

// RequirePermission rejects requests with 403 unless the current role holds
// action on feature.
func RequirePermission(auth Authorizer, feature permission.Feature, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil || !auth.HasPermission(feature, action) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
