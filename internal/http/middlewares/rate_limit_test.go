package middlewares

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dropDatabas3/tokensmith/internal/rate"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (rate.Result, error) {
	return rate.Result{}, stderrors.New("redis down")
}

func TestWithRateLimit(t *testing.T) {
	h := Chain(http.HandlerFunc(okHandler), WithRateLimit(rate.NewMemoryLimiter(2, time.Hour)))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/tokens/generate", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.1.1.1").Code)
	rec := do("10.1.1.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

	rec = do("10.1.1.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, do("10.1.1.2").Code)
}

func TestWithRateLimit_FailOpenAndNil(t *testing.T) {
	for _, l := range []rate.Limiter{failingLimiter{}, nil} {
		h := Chain(http.HandlerFunc(okHandler), WithRateLimit(l))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
