package httpapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alphabot-ai/devconnect/internal/auth"
	"github.com/alphabot-ai/devconnect/internal/logging"
	"github.com/alphabot-ai/devconnect/internal/posts"
	"github.com/alphabot-ai/devconnect/internal/rate"
	"github.com/alphabot-ai/devconnect/internal/store/sqlite"

	"github.com/google/go-cmp/cmp"
)

type allowAllLimiter struct{}

func (a allowAllLimiter) Allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	return true, 0
}

type denyLimiter struct{ retry time.Duration }

func (d denyLimiter) Allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	return false, d.retry
}

func newUnitServer(t *testing.T, name string, limiter rate.Limiter) *Server {
	t.Helper()
	st, err := sqlite.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := testConfig()
	authSvc, err := auth.NewService(st, auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL), cfg.BcryptCost)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return NewServer(authSvc, posts.NewService(st), limiter, logging.Discard(), cfg)
}

func TestSplitPath(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "/", want: nil},
		{in: "/posts", want: []string{"posts"}},
		{in: "/posts/comment/a/b/", want: []string{"posts", "comment", "a", "b"}},
		{in: "posts/like/abc", want: []string{"posts", "like", "abc"}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, splitPath(tc.in)); diff != "" {
			t.Fatalf("splitPath(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	if got := clientIP(req); got != "10.0.0.7" {
		t.Fatalf("expected remote host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	server := newUnitServer(t, "server_request_id", allowAllLimiter{})

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)

	if got := resp.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestRateLimitResponse(t *testing.T) {
	server := newUnitServer(t, "server_rate_limit", denyLimiter{retry: 200 * time.Millisecond})

	req := httptest.NewRequest(http.MethodPost, "/api/auth", nil)
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if got := resp.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After rounded up to 1, got %q", got)
	}
	var payload rateLimitResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json parse: %v", err)
	}
	if payload.RetryAfter != 1 || payload.Msg != "rate limit exceeded" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestNonAPIPathsAreNotFound(t *testing.T) {
	server := newUnitServer(t, "server_not_found", allowAllLimiter{})

	for _, path := range []string{"/", "/posts", "/api"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		server.ServeHTTP(resp, req)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, resp.Code)
		}
	}
}
