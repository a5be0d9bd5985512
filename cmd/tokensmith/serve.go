package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tokensmith/internal/http/router"
	"github.com/dropDatabas3/tokensmith/internal/http/server"
	"github.com/dropDatabas3/tokensmith/internal/jwt"
	"github.com/dropDatabas3/tokensmith/internal/metrics"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
	"github.com/dropDatabas3/tokensmith/internal/rate"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			started := time.Now()
			m := metrics.New()
			if err := m.Register(prometheus.DefaultRegisterer); err != nil {
				return err
			}
			a, err := openApp(ctx, opts, m)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			log := logger.Named("serve")
			kid, _ := a.ring.ActiveKeyID()
			log.Info("tokensmith starting",
				logger.String("addr", addr),
				logger.Driver(a.cfg.Keystore.Driver),
				logger.Algorithm(string(a.ring.Algorithm())),
				logger.KeyID(kid),
				logger.Bool("rotation_enabled", a.ring.RotationEnabled()),
			)
			if a.cfg.Server.AdminAPIKey == "" {
				log.Warn("admin api disabled (server.admin_api_key vacío)")
			}

			var limiter rate.Limiter
			if a.cfg.Rate.Enabled {
				l, closeLimiter, err := rate.New(ctx, rate.Config{
					Backend:       a.cfg.Rate.Backend,
					MaxRequests:   a.cfg.Rate.MaxRequests,
					Window:        a.cfg.RateWindow(),
					RedisAddr:     a.cfg.Keystore.Redis.Addr,
					RedisPassword: a.cfg.Keystore.Redis.Password,
					RedisDB:       a.cfg.Keystore.Redis.DB,
					Prefix:        a.cfg.Keystore.Redis.Prefix + ":rl:",
				})
				if err != nil {
					return err
				}
				defer closeLimiter()
				limiter = l
				log.Info("rate limit enabled",
					logger.String("backend", a.cfg.Rate.Backend),
					logger.Int("max_requests", a.cfg.Rate.MaxRequests),
					logger.String("window", a.cfg.Rate.Window),
				)
			}

			h := router.New(router.Deps{
				Ring:        a.ring,
				Tokens:      a.tokens,
				Publisher:   jwt.NewPublisher(a.ring),
				Store:       a.store,
				Metrics:     m,
				Limiter:     limiter,
				AdminAPIKey: a.cfg.Server.AdminAPIKey,
				StartedAt:   started,
			})
			return server.Run(ctx, addr, h)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Dirección de escucha (default server.addr)")
	return cmd
}

// commandContext devuelve el contexto del comando o Background si corre fuera de Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
