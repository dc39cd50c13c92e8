package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediscache "github.com/webpulse/webpulse/internal/repository/redis"
)

func setupRateLimiter(t *testing.T, limit int) *RateLimitMiddleware {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimitMiddleware(rediscache.NewFromClient(client), limit, true)
}

func TestRateLimitMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allows requests under the limit", func(t *testing.T) {
		m := setupRateLimiter(t, 3)
		stack := m.Handler(okHandler)

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest("GET", "/api/report/abc", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			rec := httptest.NewRecorder()
			stack.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("rejects requests over the limit", func(t *testing.T) {
		m := setupRateLimiter(t, 2)
		stack := m.Handler(okHandler)

		var last *httptest.ResponseRecorder
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest("GET", "/api/report/abc", nil)
			req.RemoteAddr = "10.0.0.2:1234"
			last = httptest.NewRecorder()
			stack.ServeHTTP(last, req)
		}

		assert.Equal(t, http.StatusTooManyRequests, last.Code)
		assert.Equal(t, "60", last.Header().Get("Retry-After"))
		assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("clients are limited independently", func(t *testing.T) {
		m := setupRateLimiter(t, 1)
		stack := m.Handler(okHandler)

		first := httptest.NewRequest("GET", "/api/analyze", nil)
		first.RemoteAddr = "10.0.0.3:1234"
		rec := httptest.NewRecorder()
		stack.ServeHTTP(rec, first)
		require.Equal(t, http.StatusOK, rec.Code)

		second := httptest.NewRequest("GET", "/api/analyze", nil)
		second.RemoteAddr = "10.0.0.4:1234"
		rec = httptest.NewRecorder()
		stack.ServeHTTP(rec, second)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("health endpoint is exempt", func(t *testing.T) {
		m := setupRateLimiter(t, 1)
		stack := m.Handler(okHandler)

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest("GET", "/api/health", nil)
			req.RemoteAddr = "10.0.0.5:1234"
			rec := httptest.NewRecorder()
			stack.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("disabled middleware passes everything", func(t *testing.T) {
		m := NewRateLimitMiddleware(nil, 1, false)
		stack := m.Handler(okHandler)

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest("GET", "/api/analyze", nil)
			rec := httptest.NewRecorder()
			stack.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}
