package credential

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// ErrInvalidOrigin is returned by [NewCookieBackend] for an unusable origin URL.
var ErrInvalidOrigin = errors.New("invalid cookie origin")

// CookieOptions mirrors the attributes written with every cookie.
type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// DefaultCookieOptions returns path "/" with SameSite=Lax.
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

// CookieBackend stores credentials as cookies for a single origin. Values are
// query-escaped on write and unescaped on read, so arbitrary strings survive the
// cookie value grammar.
type CookieBackend struct {
	jar    http.CookieJar
	origin *url.URL
	opts   CookieOptions
	now    func() time.Time
}

// NewCookieBackend creates a backend with a fresh jar scoped to origin
// (for example "https://dashboard.example.com").
func NewCookieBackend(origin string, opts CookieOptions) (*CookieBackend, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return NewCookieBackendWithJar(jar, origin, opts)
}

// NewCookieBackendWithJar creates a backend over an existing jar, typically the
// one installed on the http.Client that talks to the auth service.
func NewCookieBackendWithJar(jar http.CookieJar, origin string, opts CookieOptions) (*CookieBackend, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidOrigin
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &CookieBackend{
		jar:    jar,
		origin: u,
		opts:   opts,
		now:    time.Now,
	}, nil
}

// Jar returns the underlying cookie jar.
func (c *CookieBackend) Jar() http.CookieJar {
	return c.jar
}

func (c *CookieBackend) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     c.opts.Path,
		Domain:   c.opts.Domain,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	}
}

// Write sets the cookie. A non-positive expiry produces a session cookie.
func (c *CookieBackend) Write(_ context.Context, key, value string, expiry time.Duration) error {
	ck := c.cookie(key, value)
	if expiry > 0 {
		ck.Expires = c.now().Add(expiry)
	}
	c.jar.SetCookies(c.origin, []*http.Cookie{ck})
	return nil
}

// Read returns the unescaped cookie value.
func (c *CookieBackend) Read(_ context.Context, key string) (string, bool, error) {
	for _, ck := range c.jar.Cookies(c.origin) {
		if ck.Name != key {
			continue
		}
		value, err := url.QueryUnescape(ck.Value)
		if err != nil {
			return "", false, err
		}
		return value, true, nil
	}
	return "", false, nil
}

// Delete overwrites the cookie with an already-expired one so the jar evicts it.
func (c *CookieBackend) Delete(_ context.Context, key string) error {
	ck := c.cookie(key, "")
	ck.Expires = time.Unix(0, 0)
	ck.MaxAge = -1
	c.jar.SetCookies(c.origin, []*http.Cookie{ck})
	return nil
}

// Has reports whether a cookie named key is present.
func (c *CookieBackend) Has(ctx context.Context, key string) bool {
	_, ok, err := c.Read(ctx, key)
	return ok && err == nil
}
