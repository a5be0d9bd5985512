// Package router arma el chi.Router con todas las rutas del servicio.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/tokensmith/internal/http/controllers"
	"github.com/dropDatabas3/tokensmith/internal/http/errors"
	mw "github.com/dropDatabas3/tokensmith/internal/http/middlewares"
	"github.com/dropDatabas3/tokensmith/internal/jwt"
	"github.com/dropDatabas3/tokensmith/internal/keystore"
	"github.com/dropDatabas3/tokensmith/internal/metrics"
	"github.com/dropDatabas3/tokensmith/internal/rate"
)

// Deps son las dependencias del router. Ring, Tokens y Store son obligatorias.
type Deps struct {
	Ring        *jwt.KeyRing
	Tokens      *jwt.TokenService
	Publisher   *jwt.Publisher
	Store       keystore.KeyStore
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer // nil = default
	Limiter     rate.Limiter        // nil = sin rate limit en /api/tokens
	AdminAPIKey string
	StartedAt   time.Time
}

// New devuelve el handler raíz.
func New(d Deps) http.Handler {
	if d.Publisher == nil {
		d.Publisher = jwt.NewPublisher(d.Ring)
	}
	if d.StartedAt.IsZero() {
		d.StartedAt = time.Now()
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	tokens := controllers.NewTokensController(d.Tokens)
	keys := controllers.NewKeysController(d.Ring, d.Publisher)
	health := controllers.NewHealthController(d.Ring, d.Store, d.StartedAt)

	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithMetrics(d.Metrics),
		mw.WithSecurityHeaders(),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, errors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, errors.ErrMethodNotAllowed)
	})

	// health y métricas sin logging (muy frecuentes)
	r.Get("/health", health.Health)
	r.Get("/health/ready", health.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(mw.WithLogging())

		r.With(mw.WithCacheControl("public, max-age=60")).Get("/.well-known/jwks.json", keys.JWKS)

		r.Route("/api", func(r chi.Router) {
			r.Get("/keys", keys.PublicKeys)
			r.Route("/tokens", func(r chi.Router) {
				r.Use(mw.WithRateLimit(d.Limiter), mw.WithNoStore())
				r.Post("/generate", tokens.Generate)
				r.Post("/validate", tokens.Validate)
			})
		})

		r.Route("/admin/keys", func(r chi.Router) {
			r.Use(mw.RequireAdminKey(d.AdminAPIKey), mw.WithNoStore())
			r.Get("/", keys.List)
			r.Post("/rotate", keys.Rotate)
			r.Delete("/{kid}", keys.Remove)
		})
	})
	return r
}
