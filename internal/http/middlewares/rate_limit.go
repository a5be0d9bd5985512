package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dropDatabas3/tokensmith/internal/http/errors"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
	"github.com/dropDatabas3/tokensmith/internal/rate"
)

// WithRateLimit limita por IP de cliente. Si el limiter falla la request pasa (fail-open).
func WithRateLimit(limiter rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), "ip:"+clientIP(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limit check failed", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if res.WindowTTL > 0 {
				h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.WindowTTL).Unix(), 10))
			}
			if !res.Allowed {
				secs := int64(res.RetryAfter / time.Second)
				if res.RetryAfter%time.Second != 0 {
					secs++
				}
				h.Set("Retry-After", strconv.FormatInt(secs, 10))
				errors.WriteError(w, r, errors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
