package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("10.0.0.1:5000"))
	require.Equal(t, http.StatusOK, do("10.0.0.1:5001"))
	require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:5002"))
	require.Equal(t, http.StatusOK, do("10.0.0.2:5000"), "buckets are per client IP")
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(rate.Every(time.Second), 1, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(30 * time.Second)
	limiter.Allow("b")
	now = now.Add(45 * time.Second)

	require.Equal(t, 1, limiter.Cleanup())
	require.Len(t, limiter.visitors, 1)
	require.Contains(t, limiter.visitors, "b")
}
