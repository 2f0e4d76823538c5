package session

import (
	"errors"
	"strings"
)

var (
	// ErrUnauthenticated marks an authentication-class failure (HTTP 401 or an
	// explicit "not authenticated" answer). It tears the session down.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidRequest marks a validation fault. No state is mutated.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnreachable marks a transport fault where no response arrived.
	ErrUnreachable = errors.New("unable to reach the server, please check your network connection")
	// ErrSemanticFailure marks a response that arrived with success=false.
	ErrSemanticFailure = errors.New("request was not successful")
	// ErrRefreshFailed is returned when the token pair could not be renewed.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrNoSession is returned by operations that need a token when none is held.
	ErrNoSession = errors.New("no active session")
)

// Default user-facing messages recorded as error state.
const (
	MsgLoginFailed          = "login failed, please check your email and password"
	MsgRegisterFailed       = "registration failed, please try again later"
	MsgFederatedLoginFailed = "federated login failed, please try again later"
	MsgProfileFailed        = "failed to load user profile"
	MsgProfileUpdateFailed  = "failed to update user profile"
	MsgPasswordChangeFailed = "failed to change password"
)

// SemanticError carries the message of a success=false response.
type SemanticError struct {
	Message string
}

func (e *SemanticError) Error() string {
	if e.Message == "" {
		return ErrSemanticFailure.Error()
	}
	return e.Message
}

func (e *SemanticError) Unwrap() error {
	return ErrSemanticFailure
}

// IsAuthenticationFault reports whether err should end the session. Besides
// [ErrUnauthenticated] it accepts errors whose text carries a 401 marker, which
// is what some gateways put in a plain message.
func IsAuthenticationFault(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthenticated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "401") || strings.Contains(msg, "unauthenticated") || strings.Contains(msg, "未認證")
}

func messageOr(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

var errEmptyFederatedToken = errors.New("federated token is required")

type refreshError struct {
	cause error
}

func (e *refreshError) Error() string {
	return ErrRefreshFailed.Error() + ": " + e.cause.Error()
}

func (e *refreshError) Unwrap() []error {
	return []error{ErrRefreshFailed, e.cause}
}

func refreshFailed(cause error) error {
	return &refreshError{cause: cause}
}
