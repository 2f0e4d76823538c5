package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goGuard/credential"
	"github.com/MrEthical07/goGuard/session"
)

// authServer is an in-process auth service. Only bearer "fresh-N" tokens issued
// by its refresh endpoint, or the token set in valid, are accepted.
type authServer struct {
	*httptest.Server

	mu            sync.Mutex
	valid         map[string]bool
	refreshOK     bool
	refreshDelay  time.Duration
	staleBarrier  int
	staleArrived  int
	staleRelease  chan struct{}
	lastPassword  session.PasswordChange
	passwordCalls int

	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
	dataCalls    atomic.Int32
}

func newAuthServer(t *testing.T) *authServer {
	t.Helper()
	s := &authServer{valid: map[string]bool{}, refreshOK: true, staleRelease: make(chan struct{})}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathLogin, func(w http.ResponseWriter, r *http.Request) {
		var req session.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "correct horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "wrong credentials"})
			return
		}
		s.allow("access-1")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"user":         map[string]any{"id": "u-1", "email": req.Email, "role": "manager"},
				"token":        "access-1",
				"refreshToken": "refresh-1",
			},
		})
	})
	mux.HandleFunc("POST "+PathRefresh, func(w http.ResponseWriter, r *http.Request) {
		n := s.refreshCalls.Add(1)
		s.mu.Lock()
		ok, delay := s.refreshOK, s.refreshDelay
		s.mu.Unlock()
		time.Sleep(delay)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "refresh expired"})
			return
		}
		token := "fresh-" + strconv.Itoa(int(n))
		s.allow(token)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"token": token, "refreshToken": "refresh-" + token},
		})
	})
	mux.HandleFunc("POST "+PathLogout, func(w http.ResponseWriter, r *http.Request) {
		s.logoutCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("GET "+PathProfile, func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "unauthenticated"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "u-1", "email": "alice@example.com", "role": "manager"},
		})
	})
	mux.HandleFunc("PUT "+PathPassword, func(w http.ResponseWriter, r *http.Request) {
		var req session.PasswordChange
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		s.passwordCalls++
		s.lastPassword = req
		s.mu.Unlock()
		if !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("GET /api/data", func(w http.ResponseWriter, r *http.Request) {
		s.dataCalls.Add(1)
		if !s.authorized(r) {
			s.waitForStale()
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"auth": r.Header.Get("Authorization")})
	})
	mux.HandleFunc("GET /api/broken", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not json"))
	})
	mux.HandleFunc("POST /api/invalid", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "email is required"})
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *authServer) configure(fn func(*authServer)) {
	s.mu.Lock()
	fn(s)
	s.mu.Unlock()
}

func (s *authServer) allow(token string) {
	s.mu.Lock()
	s.valid[token] = true
	s.mu.Unlock()
}

func (s *authServer) revoke(token string) {
	s.mu.Lock()
	delete(s.valid, token)
	s.mu.Unlock()
}

func (s *authServer) authorized(r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid[token]
}

// waitForStale holds 401 answers until staleBarrier requests were rejected, so
// that every caller observes the expiry at the same time.
func (s *authServer) waitForStale() {
	s.mu.Lock()
	if s.staleBarrier == 0 {
		s.mu.Unlock()
		return
	}
	s.staleArrived++
	if s.staleArrived == s.staleBarrier {
		close(s.staleRelease)
	}
	release := s.staleRelease
	s.mu.Unlock()
	<-release
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type stack struct {
	srv         *authServer
	client      *Client
	interceptor *Interceptor
	manager     *session.Manager
	creds       *credential.Store

	mu              sync.Mutex
	unauthenticated []error
}

// newStack wires client, interceptor, and session the way an application does.
func newStack(t *testing.T, access, refresh string) *stack {
	t.Helper()
	st := &stack{srv: newAuthServer(t)}

	st.interceptor = NewInterceptor(nil)
	st.interceptor.OnUnauthenticated = func(_ context.Context, err error) {
		st.mu.Lock()
		st.unauthenticated = append(st.unauthenticated, err)
		st.mu.Unlock()
	}
	client, err := NewClient(st.srv.URL, WithHTTPClient(&http.Client{Transport: st.interceptor, Timeout: 5 * time.Second}))
	require.NoError(t, err)
	st.client = client

	st.creds = credential.NewStore(nil)
	ctx := context.Background()
	if access != "" {
		st.creds.Set(ctx, credential.AccessToken, access, 7)
	}
	if refresh != "" {
		st.creds.Set(ctx, credential.RefreshToken, refresh, 30)
	}
	st.manager = session.NewManager(ctx, client, st.creds)
	st.interceptor.Bind(st.manager)
	return st
}

func (st *stack) unauthenticatedCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.unauthenticated)
}
