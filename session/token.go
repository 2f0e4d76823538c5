package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// peekExpiry reads the exp claim without checking the signature. Opaque or
// non-JWT tokens report false.
func peekExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func accessExpiry(token string, reported time.Time) time.Time {
	if !reported.IsZero() {
		return reported
	}
	if exp, ok := peekExpiry(token); ok {
		return exp
	}
	return time.Time{}
}
