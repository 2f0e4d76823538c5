package goGuard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goGuard/guard"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/transport"
)

// fakeAuth accepts "correct horse" for any email and signs the user in with
// the role registered for that email.
type fakeAuth struct {
	*httptest.Server

	mu    sync.Mutex
	roles map[string]string
	valid map[string]bool

	logoutCalls atomic.Int32
}

func newFakeAuth(t *testing.T) *fakeAuth {
	t.Helper()
	f := &fakeAuth{
		roles: map[string]string{
			"root@example.com":    "super_admin",
			"manager@example.com": "manager",
			"nobody@example.com":  "no_permission",
		},
		valid: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+transport.PathLogin, func(w http.ResponseWriter, r *http.Request) {
		var req session.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "correct horse" {
			writeTestJSON(w, http.StatusOK, map[string]any{"success": false, "message": "wrong credentials"})
			return
		}
		token := "access-" + req.Email
		f.mu.Lock()
		f.valid[token] = true
		role := f.roles[req.Email]
		f.mu.Unlock()
		writeTestJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"user":         map[string]any{"id": "u-" + req.Email, "email": req.Email, "role": role},
				"token":        token,
				"refreshToken": "refresh-" + req.Email,
			},
		})
	})
	mux.HandleFunc("POST "+transport.PathLogout, func(w http.ResponseWriter, r *http.Request) {
		f.logoutCalls.Add(1)
		writeTestJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("POST "+transport.PathRefresh, func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "refresh expired"})
	})
	mux.HandleFunc("GET "+transport.PathProfile, func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		email := strings.TrimPrefix(token, "access-")
		f.mu.Lock()
		ok := f.valid[token]
		role := f.roles[email]
		f.mu.Unlock()
		if !ok {
			writeTestJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "unauthenticated"})
			return
		}
		writeTestJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "u-" + email, "email": email, "role": role},
		})
	})
	mux.HandleFunc("GET /api/schedules", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		ok := f.valid[token]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeTestJSON(w, http.StatusOK, []string{})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAuth) revokeAll() {
	f.mu.Lock()
	f.valid = map[string]bool{}
	f.mu.Unlock()
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.Transport.BaseURL = baseURL
	cfg.Transport.Timeout = 2 * time.Second
	return cfg
}

func buildTestEngine(t *testing.T, b *Builder) *Engine {
	t.Helper()
	engine, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func login(t *testing.T, e *Engine, email string) {
	t.Helper()
	ok, err := e.Session().Login(context.Background(), session.LoginRequest{Email: email, Password: "correct horse"})
	if err != nil || !ok {
		t.Fatalf("login %s: ok=%v err=%v", email, ok, err)
	}
}

type captureSink struct {
	events chan AuditEvent
}

func newCaptureSink(buffer int) *captureSink {
	return &captureSink{events: make(chan AuditEvent, buffer)}
}

func (s *captureSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *captureSink) next(t *testing.T) AuditEvent {
	t.Helper()
	select {
	case e := <-s.events:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestBuildRequiresTransport(t *testing.T) {
	_, err := New().Build(context.Background())
	if !errors.Is(err, ErrNoTransport) {
		t.Fatalf("expected ErrNoTransport, got %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	srv := newFakeAuth(t)
	b := New().WithConfig(testConfig(srv.URL))
	buildTestEngine(t, b)

	if _, err := b.Build(context.Background()); !errors.Is(err, ErrBuilderUsed) {
		t.Fatalf("expected ErrBuilderUsed, got %v", err)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Guard.ReturnQueryKey = ""
	if _, err := New().WithConfig(cfg).Build(context.Background()); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuildRedisWithoutClient(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Credentials.Backend = CredentialRedis
	if _, err := New().WithConfig(cfg).Build(context.Background()); !errors.Is(err, ErrRedisRequired) {
		t.Fatalf("expected ErrRedisRequired, got %v", err)
	}
}

func TestNavigateAnonymous(t *testing.T) {
	srv := newFakeAuth(t)
	e := buildTestEngine(t, New().WithConfig(testConfig(srv.URL)).WithMetricsEnabled(true))
	ctx := context.Background()

	d := e.Navigate(ctx, "/", "")
	if d.Outcome != guard.OutcomeRedirectLogin || d.Location() != "/login" || !d.Replace {
		t.Fatalf("root without token: %+v", d)
	}

	d = e.Navigate(ctx, "/dashboard/schedule/calendar?week=3", "/")
	if d.Outcome != guard.OutcomeRedirectLoginWithReturn || d.Replace {
		t.Fatalf("protected without token: %+v", d)
	}
	if got := d.Query.Get("redirect"); got != "/dashboard/schedule/calendar?week=3" {
		t.Fatalf("return target = %q", got)
	}

	if d = e.Navigate(ctx, "/register", ""); !d.Allowed() {
		t.Fatalf("public page refused: %+v", d)
	}

	snap := e.MetricsSnapshot()
	if snap.Counters[MetricGuardLoginRedirect] != 2 || snap.Counters[MetricGuardAdmit] != 1 {
		t.Fatalf("unexpected guard counters %v", snap.Counters)
	}
}

func TestNavigateAuthenticated(t *testing.T) {
	srv := newFakeAuth(t)
	e := buildTestEngine(t, New().WithConfig(testConfig(srv.URL)))
	ctx := context.Background()
	login(t, e, "manager@example.com")

	tests := []struct {
		target  string
		outcome guard.Outcome
		to      string
	}{
		{"/", guard.OutcomeRedirect, "/dashboard/schedule/new"},
		{"/login", guard.OutcomeRedirect, "/dashboard/schedule/new"},
		{"/dashboard", guard.OutcomeRedirect, "/dashboard/schedule/new"},
		{"/dashboard/schedule/edit/42", guard.OutcomeAdmit, ""},
		{"/dashboard/profile", guard.OutcomeAdmit, ""},
		{"/dashboard/admin/users", guard.OutcomeRedirect, "/dashboard/schedule/new"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			d := e.Navigate(ctx, tt.target, "/dashboard/profile")
			if d.Outcome != tt.outcome {
				t.Fatalf("outcome = %v, want %v (%s)", d.Outcome, tt.outcome, d.Reason)
			}
			if tt.to != "" && d.Location() != tt.to {
				t.Fatalf("location = %q, want %q", d.Location(), tt.to)
			}
		})
	}

	if !e.Permissions().HasPermission("schedules", "canCreate") {
		t.Fatal("manager should create schedules")
	}
	if e.Permissions().IsAdmin() {
		t.Fatal("manager reported as admin")
	}
}

func TestNavigateNoPermissionForcesLogout(t *testing.T) {
	srv := newFakeAuth(t)
	sink := newCaptureSink(16)
	cfg := testConfig(srv.URL)
	cfg.Audit.Enabled = true
	e := buildTestEngine(t, New().WithConfig(cfg).WithAuditSink(sink).WithMetricsEnabled(true))
	ctx := context.Background()

	login(t, e, "nobody@example.com")
	if ev := sink.next(t); ev.EventType != AuditLoginSuccess || ev.UserID != "u-nobody@example.com" {
		t.Fatalf("unexpected login event %+v", ev)
	}

	d := e.Navigate(ctx, "/dashboard/profile", "")
	if d.Outcome != guard.OutcomeForceLogout || d.Location() != "/login" {
		t.Fatalf("expected forced logout, got %+v", d)
	}
	if e.Session().IsAuthenticated() {
		t.Fatal("session still authenticated")
	}

	// Logout from the guard, then the denial record.
	if ev := sink.next(t); ev.EventType != AuditLogout {
		t.Fatalf("expected logout event, got %q", ev.EventType)
	}
	ev := sink.next(t)
	if ev.EventType != AuditNavigationDenied || ev.Metadata["target"] != "/dashboard/profile" {
		t.Fatalf("unexpected denial event %+v", ev)
	}
	if got := e.MetricsSnapshot().Counters[MetricForcedLogout]; got != 1 {
		t.Fatalf("forced logout counter = %d", got)
	}
}

func TestLoginDeclinedRecordsFailure(t *testing.T) {
	srv := newFakeAuth(t)
	sink := newCaptureSink(4)
	cfg := testConfig(srv.URL)
	cfg.Audit.Enabled = true
	e := buildTestEngine(t, New().WithConfig(cfg).WithAuditSink(sink).WithMetricsEnabled(true))

	ok, err := e.Session().Login(context.Background(), session.LoginRequest{Email: "root@example.com", Password: "wrong"})
	if ok || err != nil {
		t.Fatalf("declined login: ok=%v err=%v", ok, err)
	}
	if got := e.Session().LastError(); got != "wrong credentials" {
		t.Fatalf("last error = %q", got)
	}

	ev := sink.next(t)
	if ev.EventType != AuditLoginFailure || ev.Success || ev.Error != "declined" {
		t.Fatalf("unexpected failure event %+v", ev)
	}
	if got := e.MetricsSnapshot().Counters[MetricLoginFailure]; got != 1 {
		t.Fatalf("login failure counter = %d", got)
	}
}

func TestHTTPClientForcesLogoutWhenRefreshFails(t *testing.T) {
	srv := newFakeAuth(t)
	sink := newCaptureSink(16)
	cfg := testConfig(srv.URL)
	cfg.Audit.Enabled = true
	e := buildTestEngine(t, New().WithConfig(cfg).WithAuditSink(sink).WithMetricsEnabled(true))
	login(t, e, "root@example.com")
	_ = sink.next(t)

	resp, err := e.HTTPClient().Get(srv.URL + "/api/schedules")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	srv.revokeAll()
	resp, err = e.HTTPClient().Get(srv.URL + "/api/schedules")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if e.Session().IsAuthenticated() {
		t.Fatal("session survived a failed refresh")
	}

	var sawForced bool
	for i := 0; i < 5 && !sawForced; i++ {
		sawForced = sink.next(t).EventType == AuditForcedLogout
	}
	if !sawForced {
		t.Fatal("no forced_logout audit event")
	}
	snap := e.MetricsSnapshot()
	if snap.Counters[MetricRefreshFailure] != 1 || snap.Counters[MetricForcedLogout] != 1 {
		t.Fatalf("unexpected counters %v", snap.Counters)
	}
}

func TestRedisBackendRestoresSession(t *testing.T) {
	srv := newFakeAuth(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig(srv.URL)
	cfg.Credentials.Backend = CredentialRedis

	first := buildTestEngine(t, New().WithConfig(cfg).WithRedis(rdb))
	login(t, first, "root@example.com")

	second := buildTestEngine(t, New().WithConfig(cfg).WithRedis(rdb))
	if got := second.Session().AccessToken(); got != "access-root@example.com" {
		t.Fatalf("restored token = %q", got)
	}
	if second.Session().User() != nil {
		t.Fatal("profile should load lazily")
	}

	d := second.Navigate(context.Background(), "/dashboard/admin/users", "")
	if !d.Allowed() {
		t.Fatalf("super admin refused: %+v", d)
	}
	if !second.Permissions().IsSuperAdmin() {
		t.Fatal("expected super admin after lazy profile fetch")
	}
}

func TestRevokedRestoredSessionLogsOutOnce(t *testing.T) {
	srv := newFakeAuth(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig(srv.URL)
	cfg.Credentials.Backend = CredentialRedis

	first := buildTestEngine(t, New().WithConfig(cfg).WithRedis(rdb))
	login(t, first, "manager@example.com")
	second := buildTestEngine(t, New().WithConfig(cfg).WithRedis(rdb))
	srv.revokeAll()

	d := second.Navigate(context.Background(), "/dashboard/profile", "")
	if d.Outcome != guard.OutcomeForceLogout || d.Location() != "/login" {
		t.Fatalf("expected forced logout, got %+v", d)
	}
	if second.Session().AccessToken() != "" {
		t.Fatal("token survived forced logout")
	}
	if got := srv.logoutCalls.Load(); got != 1 {
		t.Fatalf("remote logout calls = %d", got)
	}
}

func TestCookieBackendSharesJar(t *testing.T) {
	srv := newFakeAuth(t)
	cfg := testConfig(srv.URL)
	cfg.Credentials.Backend = CredentialCookie
	cfg.Credentials.CookieOrigin = srv.URL

	e := buildTestEngine(t, New().WithConfig(cfg))
	login(t, e, "manager@example.com")

	jar := e.HTTPClient().Jar
	if jar == nil {
		t.Fatal("cookie backend did not install a jar")
	}
	var found bool
	for _, c := range jar.Cookies(mustParse(t, srv.URL)) {
		if c.Name == cfg.Credentials.AccessKey && c.Value == url.QueryEscape("access-manager@example.com") {
			found = true
		}
	}
	if !found {
		t.Fatal("access token cookie missing from jar")
	}
}

func TestLatencyHistogramsRecordRefresh(t *testing.T) {
	srv := newFakeAuth(t)
	e := buildTestEngine(t, New().WithConfig(testConfig(srv.URL)).WithLatencyHistograms(true))
	login(t, e, "root@example.com")

	if _, err := e.Session().RefreshAuthToken(context.Background()); err == nil {
		t.Fatal("expected refresh failure")
	}

	var total uint64
	for _, v := range e.MetricsSnapshot().Histograms[MetricRefreshLatency] {
		total += v
	}
	if total != 1 {
		t.Fatalf("refresh latency observations = %d", total)
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}
