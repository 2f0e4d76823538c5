package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goGuard/session"
)

// ErrDecode is returned when a response body is not the expected JSON.
var ErrDecode = errors.New("transport: malformed response")

// APIError is an HTTP-status failure from the auth service.
type APIError struct {
	Status    int
	Message   string
	Method    string
	Path      string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Is maps statuses onto the session error taxonomy.
func (e *APIError) Is(target error) bool {
	switch target {
	case session.ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	case session.ErrInvalidRequest:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	}
	return false
}

var errRetryRejected = errors.New("transport: request rejected again after token refresh")
