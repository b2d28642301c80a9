package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medtrackhq/medtrack/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"

		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("prefers first X-Forwarded-For entry", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")

		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("uses X-Real-IP if X-Forwarded-For absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Real-IP", "203.0.113.2")

		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	config := httpx.RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		Burst:             10,
	}

	t.Run("allows burst then denies", func(t *testing.T) {
		handler := httpx.Chain(okHandler(), httpx.RateLimitByIP(config))

		for i := range 10 {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:5000"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
		}

		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("clients do not interfere", func(t *testing.T) {
		handler := httpx.Chain(okHandler(), httpx.RateLimitByIP(config))

		// Exhaust one client's bucket.
		for range 11 {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "10.0.0.2:5000"
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		// A different client still gets through.
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.3:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("safe under concurrent requests for one client", func(t *testing.T) {
		handler := httpx.Chain(okHandler(), httpx.RateLimitByIP(config))

		results := make(chan int, 20)
		for range 20 {
			go func() {
				req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
				req.RemoteAddr = "10.0.0.4:5000"
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				results <- rec.Code
			}()
		}

		var allowed, denied int
		for range 20 {
			switch <-results {
			case http.StatusOK:
				allowed++
			case http.StatusTooManyRequests:
				denied++
			}
		}

		// Exactly the burst is admitted, never more; the bucket is not
		// double-charged or under-charged by the race.
		require.Equal(t, 10, allowed)
		require.Equal(t, 10, denied)
	})
}

func TestParseRateLimitFromEnv(t *testing.T) {
	base := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	t.Run("returns default when unset", func(t *testing.T) {
		got := httpx.ParseRateLimitFromEnv("MISSING", base)
		require.Equal(t, base, got)
	})

	t.Run("applies overrides", func(t *testing.T) {
		t.Setenv("RATELIMIT_TESTPROFILE_REQUESTS", "5")
		t.Setenv("RATELIMIT_TESTPROFILE_WINDOW_SEC", "30")
		t.Setenv("RATELIMIT_TESTPROFILE_BURST", "2")

		got := httpx.ParseRateLimitFromEnv("TESTPROFILE", base)
		require.Equal(t, 5, got.RequestsPerWindow)
		require.Equal(t, 30*time.Second, got.Window)
		require.Equal(t, 2, got.Burst)
	})

	t.Run("ignores invalid values", func(t *testing.T) {
		t.Setenv("RATELIMIT_TESTPROFILE_REQUESTS", "zero")
		got := httpx.ParseRateLimitFromEnv("TESTPROFILE2", base)
		require.Equal(t, base.RequestsPerWindow, got.RequestsPerWindow)
	})
}

func TestRateLimitSteadyState(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-sensitive")
	}

	// 60/min refills one permit a second; after the burst is drained a
	// request should pass again within ~1s.
	config := httpx.RateLimitConfig{RequestsPerWindow: 60, Window: time.Minute, Burst: 1}
	handler := httpx.Chain(okHandler(), httpx.RateLimitByIP(config))

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.5:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do())
	require.Equal(t, http.StatusTooManyRequests, do())

	time.Sleep(1100 * time.Millisecond)
	require.Equal(t, http.StatusOK, do(), "bucket should refill within a second")
}
