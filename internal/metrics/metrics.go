// Package metrics agrupa los collectors Prometheus del servicio. Vive en un paquete
// propio para que jwt y http puedan usarlo sin ciclos de import.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados usados como label.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics contiene todos los collectors. Un *Metrics nil es válido: los métodos son no-op.
type Metrics struct {
	TokensIssued       *prometheus.CounterVec
	TokenVerifications *prometheus.CounterVec
	KeyRotations       *prometheus.CounterVec
	KeysRemoved        prometheus.Counter
	KeyringKeys        prometheus.Gauge
	VerifyDuration     prometheus.Histogram

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInflight        prometheus.Gauge
}

// New crea collectors sin registrar.
func New() *Metrics {
	return &Metrics{
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokensmith_tokens_issued_total",
			Help: "Tokens emitidos por algoritmo",
		}, []string{"alg"}),
		TokenVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokensmith_token_verifications_total",
			Help: "Verificaciones de token por resultado",
		}, []string{"result"}), // ok | invalid-format | unknown-key | expired | bad-signature | ...
		KeyRotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokensmith_key_rotations_total",
			Help: "Rotaciones de clave por resultado",
		}, []string{"result"}),
		KeysRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokensmith_keys_removed_total",
			Help: "Claves eliminadas del key ring",
		}),
		KeyringKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tokensmith_keyring_keys",
			Help: "Claves cargadas en el key ring (activa + históricas)",
		}),
		VerifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokensmith_token_verify_duration_seconds",
			Help:    "Latencia de verificación de tokens",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TokensIssued, m.TokenVerifications, m.KeyRotations, m.KeysRemoved,
		m.KeyringKeys, m.VerifyDuration,
		m.HTTPRequests, m.HTTPRequestDuration, m.HTTPInflight,
	}
}

// Register registra los collectors en reg (o el default si es nil).
// Registrar dos veces no es error.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

func (m *Metrics) TokenIssued(alg string) {
	if m == nil {
		return
	}
	m.TokensIssued.WithLabelValues(alg).Inc()
}

func (m *Metrics) TokenVerified(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.TokenVerifications.WithLabelValues(result).Inc()
	m.VerifyDuration.Observe(d.Seconds())
}

func (m *Metrics) KeyRotated(result string) {
	if m == nil {
		return
	}
	m.KeyRotations.WithLabelValues(result).Inc()
}

func (m *Metrics) KeyRemoved() {
	if m == nil {
		return
	}
	m.KeysRemoved.Inc()
}

func (m *Metrics) SetKeyCount(n int) {
	if m == nil {
		return
	}
	m.KeyringKeys.Set(float64(n))
}

// ObserveHTTP registra un request terminado.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
