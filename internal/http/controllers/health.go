package controllers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/dropDatabas3/tokensmith/internal/http/dto"
	"github.com/dropDatabas3/tokensmith/internal/http/helpers"
	"github.com/dropDatabas3/tokensmith/internal/jwt"
	"github.com/dropDatabas3/tokensmith/internal/keystore"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
)

const readyTimeout = 2 * time.Second

// HealthController maneja /health y /health/ready.
type HealthController struct {
	ring    *jwt.KeyRing
	store   keystore.KeyStore
	started time.Time
	now     func() time.Time
}

func NewHealthController(ring *jwt.KeyRing, store keystore.KeyStore, started time.Time) *HealthController {
	return &HealthController{ring: ring, store: store, started: started, now: time.Now}
}

// Health maneja GET /health (liveness): uptime y memoria, siempre 200.
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	now := c.now()
	helpers.WriteJSON(w, http.StatusOK, dto.HealthResponse{
		Success: true,
		Data: dto.HealthData{
			Status:    "healthy",
			Timestamp: now.UTC().Format(time.RFC3339Nano),
			Uptime:    FormatUptime(now.Sub(c.started)),
			Memory:    memoryUsage(),
		},
	})
}

// Ready maneja GET /health/ready: 200 si el ring está Ready y el store responde.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("HealthController.Ready"))
	checks := map[string]string{"keyring": c.ring.State().String(), "keystore": "ok"}
	healthy := c.ring.Ready()

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := keystore.Ping(ctx, c.store); err != nil {
		checks["keystore"] = "unavailable"
		healthy = false
		log.Warn("keystore not reachable", logger.Err(err))
	}

	resp := dto.HealthResponse{
		Success: healthy,
		Data: dto.HealthData{
			Status:    "healthy",
			Timestamp: c.now().UTC().Format(time.RFC3339Nano),
			Checks:    checks,
		},
	}
	status := http.StatusOK
	if !healthy {
		resp.Data.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else if kid, err := c.ring.ActiveKeyID(); err == nil {
		resp.Data.ActiveKID = kid
		w.Header().Set("X-JWKS-KID", kid)
	}
	helpers.WriteJSON(w, status, resp)
}

// FormatUptime formatea d como "Xd Xh Xm Xs".
func FormatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%dd %dh %dm %ds", secs/86400, (secs%86400)/3600, (secs%3600)/60, secs%60)
}

func memoryUsage() *dto.MemoryUsage {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return &dto.MemoryUsage{
		Sys:        formatMB(ms.Sys),
		HeapAlloc:  formatMB(ms.HeapAlloc),
		HeapSys:    formatMB(ms.HeapSys),
		StackInuse: formatMB(ms.StackInuse),
		Goroutines: runtime.NumGoroutine(),
	}
}

func formatMB(b uint64) string { return fmt.Sprintf("%.2fMB", float64(b)/1024/1024) }
