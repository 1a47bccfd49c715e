package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/study-buddy/internal/api/middleware"
	"github.com/dom/study-buddy/internal/domain"
	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver map[string]*domain.Identity

func (s staticResolver) Resolve(_ context.Context, token string) *domain.Identity {
	return s[token]
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: ""},
		{header: "Bearer abc123", want: "abc123"},
		{header: "bearer abc123", want: "abc123"},
		{header: "Bearer   abc123  ", want: "abc123"},
		{header: "abc123", want: "abc123"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, middleware.BearerToken(req), "header %q", tt.header)
	}
}

func TestAuth(t *testing.T) {
	alice := &domain.Identity{UserID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	resolver := staticResolver{"good": alice}

	tests := []struct {
		name       string
		required   bool
		header     string
		wantStatus int
		wantBody   string
		wantUser   bool
	}{
		{name: "required, no token", required: true, wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Authentication required"}`},
		{name: "required, bad token", required: true, header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Invalid or expired session"}`},
		{name: "required, good token", required: true, header: "Bearer good", wantStatus: http.StatusOK, wantUser: true},
		{name: "optional, no token", wantStatus: http.StatusOK},
		{name: "optional, bad token", header: "Bearer nope", wantStatus: http.StatusOK},
		{name: "optional, good token", header: "Bearer good", wantStatus: http.StatusOK, wantUser: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser *uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = middleware.GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/flashcards", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			middleware.Auth(resolver, tt.required)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantUser {
				require.NotNil(t, gotUser)
				assert.Equal(t, alice.UserID, *gotUser)
			} else {
				assert.Nil(t, gotUser)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	handler := middleware.CORS(okHandler(t))

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/generate", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("regular request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Content-Type,Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "GET,PUT,POST,DELETE,OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	})
}

func TestRateLimit(t *testing.T) {
	log := sl.Discard()

	requestFrom := func(addr string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		return req
	}

	t.Run("allows requests within rate limit", func(t *testing.T) {
		handler := middleware.RateLimit(middleware.NewClientLimiter(10, 10, time.Minute), log)(okHandler(t))

		for i := 0; i < 10; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestFrom("192.0.2.1:1234"))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "success", rec.Body.String())
		}
	})

	t.Run("blocks requests exceeding rate limit", func(t *testing.T) {
		handler := middleware.RateLimit(middleware.NewClientLimiter(0.001, 1, time.Minute), log)(okHandler(t))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestFrom("192.0.2.1:1234"))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, requestFrom("192.0.2.1:5678"))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())
	})

	t.Run("clients are limited independently", func(t *testing.T) {
		limiter := middleware.NewClientLimiter(5, 10, time.Minute)
		handler := middleware.RateLimit(limiter, log)(okHandler(t))

		limited := 0
		for i := 0; i < 20; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestFrom("192.0.2.1:1234"))
			if rec.Code == http.StatusTooManyRequests {
				limited++
			}
		}
		require.Positive(t, limited)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestFrom("198.51.100.7:4321"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, limiter.Len())
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "203.0.113.9:443"
	assert.Equal(t, "203.0.113.9", middleware.ClientIP(req))

	req.RemoteAddr = "[2001:db8::1]:8080"
	assert.Equal(t, "2001:db8::1", middleware.ClientIP(req))

	// chi's RealIP stores a bare address without a port.
	req.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", middleware.ClientIP(req))
}

func TestRecoverer(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	middleware.Recoverer(sl.Discard())(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"boom"}`, rec.Body.String())
}
