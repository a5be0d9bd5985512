package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	require.NoError(t, m.Register(reg))
	require.NoError(t, m.Register(reg))
}

func TestRegister_ConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, New().Register(reg))
	// otra instancia con los mismos nombres: AlreadyRegistered, se tolera
	require.NoError(t, New().Register(reg))

	clash := prometheus.NewGauge(prometheus.GaugeOpts{Name: "tokensmith_keys_removed_total", Help: "x"})
	reg2 := prometheus.NewRegistry()
	require.NoError(t, reg2.Register(clash))
	assert.Error(t, New().Register(reg2))
}

func TestHelpers(t *testing.T) {
	m := New()
	m.TokenIssued("RS256")
	m.TokenIssued("RS256")
	m.TokenVerified(ResultOK, time.Millisecond)
	m.KeyRotated(ResultError)
	m.KeyRemoved()
	m.SetKeyCount(3)
	m.ObserveHTTP("GET", "/health", 503, time.Millisecond)

	assert.Equal(t, 2.0, value(t, m.TokensIssued.WithLabelValues("RS256")))
	assert.Equal(t, 1.0, value(t, m.TokenVerifications.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, value(t, m.KeyRotations.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, value(t, m.KeysRemoved))
	assert.Equal(t, 3.0, value(t, m.KeyringKeys))
	assert.Equal(t, 1.0, value(t, m.HTTPRequests.WithLabelValues("GET", "/health", "5xx")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.TokenIssued("ES256")
	m.TokenVerified(ResultOK, 0)
	m.KeyRotated(ResultOK)
	m.KeyRemoved()
	m.SetKeyCount(1)
	m.ObserveHTTP("GET", "/", 200, 0)
}

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	switch {
	case pb.Counter != nil:
		return pb.Counter.GetValue()
	case pb.Gauge != nil:
		return pb.Gauge.GetValue()
	}
	t.Fatalf("unexpected metric type")
	return 0
}
