package logger

import (
	"time"

	"go.uber.org/zap"
)

// Scope agrupa umbrales de latencia.
type Scope string

const (
	ScopeTask     Scope = "task"
	ScopeAPI      Scope = "api"
	ScopeDatabase Scope = "database"
)

type thresholds struct{ ok, good, bad time.Duration }

var perfThresholds = map[Scope]thresholds{
	ScopeTask:     {16 * time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond},
	ScopeAPI:      {100 * time.Millisecond, 300 * time.Millisecond, time.Second},
	ScopeDatabase: {50 * time.Millisecond, 200 * time.Millisecond, 500 * time.Millisecond},
}

// Grade clasifica una duración: OK, GOOD, VERY BAD o FAIL.
func Grade(scope Scope, d time.Duration) string {
	t, ok := perfThresholds[scope]
	if !ok {
		t = perfThresholds[ScopeTask]
	}
	switch {
	case d <= t.ok:
		return "OK"
	case d <= t.good:
		return "GOOD"
	case d <= t.bad:
		return "VERY BAD"
	default:
		return "FAIL"
	}
}

// Perf loguea cuánto tardó algo desde start, con su clasificación.
// FAIL sube a warn; el resto va en debug.
func Perf(l *zap.Logger, scope Scope, start time.Time, fields ...zap.Field) {
	d := time.Since(start)
	grade := Grade(scope, d)
	fields = append(fields,
		zap.String("scope", string(scope)),
		zap.String("grade", grade),
		zap.Float64("duration_ms", float64(d.Microseconds())/1000),
	)
	if grade == "FAIL" {
		l.Warn("slow "+string(scope), fields...)
		return
	}
	l.Debug(string(scope)+" completed", fields...)
}
