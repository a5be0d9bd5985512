package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dropDatabas3/tokensmith/internal/http/errors"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
)

// RequireAdminKey exige la API key de admin en X-Admin-Key o Authorization: Bearer.
// Con apiKey vacía todas las requests se rechazan.
func RequireAdminKey(apiKey string) Middleware {
	want := []byte(apiKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(want) == 0 {
				errors.WriteError(w, r, errors.ErrUnauthorized.WithDetail("admin api key not configured"))
				return
			}
			got := strings.TrimSpace(r.Header.Get("X-Admin-Key"))
			if got == "" {
				if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
					got = strings.TrimSpace(auth[7:])
				}
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				logger.From(r.Context()).Warn("admin auth rejected", logger.Path(r.URL.Path), logger.ClientIP(clientIP(r)))
				errors.WriteError(w, r, errors.ErrUnauthorized.WithDetail("invalid admin key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
