package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"task-manager/backend/models"
)

type stubResolver struct {
	token  string
	caller models.Caller
}

func (s stubResolver) ResolveCaller(_ context.Context, token string) (models.Caller, error) {
	if token != s.token {
		return models.Caller{}, errors.New("bad token")
	}
	return s.caller, nil
}

func TestJWTAuthMiddleware(t *testing.T) {
	t.Parallel()
	caller := models.Caller{ID: primitive.NewObjectID(), Role: models.RoleMember}
	var seen models.Caller
	h := JWTAuthMiddleware(stubResolver{token: "good", caller: caller})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"no bearer prefix", "good", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer good", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s: status %d, want %d", tt.name, w.Code, tt.want)
		}
	}
	if seen != caller {
		t.Fatalf("caller not stored in context: %+v", seen)
	}
}

func TestCallerFromContext_Missing(t *testing.T) {
	t.Parallel()
	if _, ok := CallerFromContext(context.Background()); ok {
		t.Fatalf("expected no caller")
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()
	called := false
	h := CORS("http://localhost:5173")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK || called {
		t.Fatalf("preflight should be answered directly, got %d called=%v", w.Code, called)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected origin header %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()
	h := RateLimiter(rate.Limit(1), 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	if code := do("127.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	if code := do("127.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Fatalf("second request from same IP: %d", code)
	}
	if code := do("192.168.1.1:1234"); code != http.StatusOK {
		t.Fatalf("other IP: %d", code)
	}
}

func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	t.Parallel()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	set := newVisitorSet(rate.Limit(1), 1, time.Minute, func() time.Time { return clock })

	first := set.get("10.0.0.1")
	set.get("10.0.0.2")
	if n := set.size(); n != 2 {
		t.Fatalf("expected 2 visitors, got %d", n)
	}

	clock = clock.Add(30 * time.Second)
	set.get("10.0.0.2")

	clock = clock.Add(40 * time.Second)
	set.get("10.0.0.3")
	if n := set.size(); n != 2 {
		t.Fatalf("expected idle visitor swept, %d left", n)
	}
	if set.get("10.0.0.1") == first {
		t.Fatalf("swept visitor kept its old limiter")
	}
}

func TestRecoveryWithLog(t *testing.T) {
	t.Parallel()
	h := RecoveryWithLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", w.Code)
	}
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	t.Parallel()
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d", w.Code)
	}
}
