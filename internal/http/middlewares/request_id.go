package middlewares

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
)

const maxRequestIDLen = 128

// WithRequestID propaga X-Request-ID (o genera uno) y deja un logger con request_id en el contexto.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if rid == "" || len(rid) > maxRequestIDLen {
				var b [16]byte
				_, _ = rand.Read(b[:])
				rid = hex.EncodeToString(b[:])
			}
			w.Header().Set("X-Request-ID", rid)

			ctx := setRequestID(r.Context(), rid)
			ctx = logger.ToContext(ctx, logger.L().With(logger.RequestID(rid)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
