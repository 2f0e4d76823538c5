package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/MrEthical07/goGuard/session"
)

type ctxKey int

const skipRefreshKey ctxKey = iota

// WithoutRefresh marks requests made with ctx as exempt from
// refresh-and-retry.
func WithoutRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipRefreshKey, true)
}

func refreshSkipped(ctx context.Context) bool {
	v, _ := ctx.Value(skipRefreshKey).(bool)
	return v
}

// TokenSource is the session the interceptor keeps authorized.
type TokenSource interface {
	AccessToken() string
	RefreshAuthToken(ctx context.Context) (string, error)
	Logout(ctx context.Context)
}

// Interceptor is an [http.RoundTripper] that attaches bearer tokens and
// recovers from expired access tokens.
type Interceptor struct {
	// Base performs the actual round trip. Nil means http.DefaultTransport.
	Base http.RoundTripper
	// OnUnauthenticated runs after the session was logged out because the
	// token pair could not be renewed.
	OnUnauthenticated func(ctx context.Context, err error)
	Logger            *slog.Logger

	mu     sync.RWMutex
	source TokenSource
}

// NewInterceptor wraps base.
func NewInterceptor(base http.RoundTripper) *Interceptor {
	return &Interceptor{Base: base}
}

// Bind sets the token source. The session usually depends on a client that
// uses this interceptor, so binding happens after construction.
func (i *Interceptor) Bind(src TokenSource) {
	i.mu.Lock()
	i.source = src
	i.mu.Unlock()
}

func (i *Interceptor) tokens() TokenSource {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.source
}

func (i *Interceptor) base() http.RoundTripper {
	if i.Base != nil {
		return i.Base
	}
	return http.DefaultTransport
}

func (i *Interceptor) logger() *slog.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return slog.Default()
}

// RoundTrip implements [http.RoundTripper].
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	src := i.tokens()
	if src == nil {
		return i.base().RoundTrip(req)
	}

	sent := src.AccessToken()
	resp, err := i.base().RoundTrip(authorize(req, sent))
	if err != nil || resp.StatusCode != http.StatusUnauthorized || sent == "" || refreshSkipped(req.Context()) {
		return resp, err
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		// The body is gone and cannot be replayed.
		return resp, nil
	}

	ctx := req.Context()
	token := src.AccessToken()
	if token == "" || token == sent {
		var rerr error
		token, rerr = src.RefreshAuthToken(ctx)
		if errors.Is(rerr, session.ErrNoSession) {
			// The session ended or was replaced while the refresh ran.
			return resp, nil
		}
		if rerr != nil {
			i.unauthenticated(ctx, src, rerr)
			return resp, nil
		}
	}

	retry, err := replay(req, token)
	if err != nil {
		return resp, nil
	}
	drain(resp)

	resp, err = i.base().RoundTrip(retry)
	if err == nil && resp.StatusCode == http.StatusUnauthorized {
		i.unauthenticated(ctx, src, errRetryRejected)
	}
	return resp, err
}

func (i *Interceptor) unauthenticated(ctx context.Context, src TokenSource, cause error) {
	i.logger().WarnContext(ctx, "session could not be renewed, logging out", slog.Any("error", cause))
	ctx = context.WithoutCancel(ctx)
	src.Logout(ctx)
	if i.OnUnauthenticated != nil {
		i.OnUnauthenticated(ctx, cause)
	}
}

func authorize(req *http.Request, token string) *http.Request {
	r := req.Clone(req.Context())
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func replay(req *http.Request, token string) (*http.Request, error) {
	r := authorize(req, token)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	return r, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
}
