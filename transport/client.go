package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goGuard/session"
)

// Auth service endpoints.
const (
	PathLogin          = "/api/auth/login"
	PathRegister       = "/api/auth/register"
	PathFederatedLogin = "/api/auth/google"
	PathLogout         = "/api/auth/logout"
	PathRefresh        = "/api/auth/refresh"
	PathProfile        = "/api/auth/profile"
	PathPassword       = "/api/auth/password"
)

// HeaderRequestID carries a per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// DefaultTimeout bounds every request made by a [Client].
const DefaultTimeout = 10 * time.Second

const maxResponseBytes = 1 << 20

// Client talks to the auth service. It implements [session.Transport].
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its Transport should be an
// [Interceptor] for bearer tokens to be attached.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("transport: base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("transport: base url %q must be http or https", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// HTTPClient returns the underlying client.
func (c *Client) HTTPClient() *http.Client { return c.http }

var _ session.Transport = (*Client)(nil)

func (c *Client) Login(ctx context.Context, req session.LoginRequest) (*session.AuthResponse, error) {
	var out session.AuthResponse
	return &out, c.send(WithoutRefresh(ctx), http.MethodPost, PathLogin, req, &out)
}

func (c *Client) Register(ctx context.Context, req session.RegisterRequest) (*session.AuthResponse, error) {
	var out session.AuthResponse
	return &out, c.send(WithoutRefresh(ctx), http.MethodPost, PathRegister, req, &out)
}

func (c *Client) LoginWithFederatedToken(ctx context.Context, token string) (*session.AuthResponse, error) {
	var out session.AuthResponse
	body := struct {
		Credential string `json:"credential"`
	}{token}
	return &out, c.send(WithoutRefresh(ctx), http.MethodPost, PathFederatedLogin, body, &out)
}

func (c *Client) Logout(ctx context.Context) (*session.StatusResponse, error) {
	var out session.StatusResponse
	return &out, c.send(WithoutRefresh(ctx), http.MethodPost, PathLogout, nil, &out)
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*session.AuthResponse, error) {
	var out session.AuthResponse
	body := struct {
		RefreshToken string `json:"refreshToken,omitempty"`
	}{refreshToken}
	return &out, c.send(WithoutRefresh(ctx), http.MethodPost, PathRefresh, body, &out)
}

func (c *Client) GetProfile(ctx context.Context) (*session.ProfileResponse, error) {
	var out session.ProfileResponse
	return &out, c.send(ctx, http.MethodGet, PathProfile, nil, &out)
}

func (c *Client) UpdateProfile(ctx context.Context, update session.ProfileUpdate) (*session.ProfileResponse, error) {
	var out session.ProfileResponse
	return &out, c.send(ctx, http.MethodPut, PathProfile, update, &out)
}

func (c *Client) ChangePassword(ctx context.Context, change session.PasswordChange) (*session.StatusResponse, error) {
	var out session.StatusResponse
	return &out, c.send(ctx, http.MethodPut, PathPassword, change, &out)
}

// Do issues an arbitrary JSON call against the service, decoding the response
// into out when it is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, method, path, body, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("transport: encode %s: %w", path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), bodyReader(payload))
	if err != nil {
		return fmt.Errorf("transport: build %s: %w", path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(HeaderRequestID, reqID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "auth request failed",
			slog.String("method", method), slog.String("path", path),
			slog.String("request_id", reqID), slog.Any("error", err))
		return fmt.Errorf("%w: %v", session.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnreachable, err)
	}
	c.logger.DebugContext(ctx, "auth request",
		slog.String("method", method), slog.String("path", path),
		slog.Int("status", resp.StatusCode), slog.String("request_id", reqID),
		slog.Duration("elapsed", time.Since(started)))

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Method: method, Path: path, RequestID: reqID}
		var env struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &env) == nil {
			apiErr.Message = env.Message
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, method, path, err)
	}
	return nil
}

func (c *Client) resolve(path string) string {
	u := *c.base
	if i := strings.IndexByte(path, '?'); i >= 0 {
		u.RawQuery = path[i+1:]
		path = path[:i]
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

func bodyReader(payload []byte) io.Reader {
	if payload == nil {
		return http.NoBody
	}
	return bytes.NewReader(payload)
}
