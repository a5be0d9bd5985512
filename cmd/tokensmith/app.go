package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dropDatabas3/tokensmith/internal/config"
	"github.com/dropDatabas3/tokensmith/internal/jwt"
	"github.com/dropDatabas3/tokensmith/internal/keystore"
	"github.com/dropDatabas3/tokensmith/internal/metrics"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
	"github.com/dropDatabas3/tokensmith/internal/security/secretbox"
)

// app es la raíz de composición: un store, un ring y un token service por proceso.
type app struct {
	cfg     *config.Config
	store   keystore.KeyStore
	closer  keystore.Closer
	ring    *jwt.KeyRing
	tokens  *jwt.TokenService
	metrics *metrics.Metrics
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return config.Load(opts.configPath)
}

func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Version:     version,
	})
}

func storeConfig(cfg *config.Config) (keystore.Config, error) {
	kc := keystore.Config{
		Driver:           cfg.Keystore.Driver,
		FSDir:            cfg.Keystore.FS.Dir,
		PostgresDSN:      cfg.Keystore.Postgres.DSN,
		PostgresMaxConns: cfg.Keystore.Postgres.MaxConns,
		Redis: keystore.RedisConfig{
			Addr:     cfg.Keystore.Redis.Addr,
			Password: cfg.Keystore.Redis.Password,
			DB:       cfg.Keystore.Redis.DB,
			Prefix:   cfg.Keystore.Redis.Prefix,
		},
		HybridPrimary:  cfg.Keystore.Hybrid.Primary,
		HybridFallback: cfg.Keystore.Hybrid.Fallback,
	}
	if mk := strings.TrimSpace(cfg.Security.MasterKey); mk != "" {
		box, err := secretbox.New(mk, secretbox.PurposePrivateKey)
		if err != nil {
			return keystore.Config{}, fmt.Errorf("security.master_key: %w", err)
		}
		kc.Sealer = box
	} else if cfg.IsProd() && cfg.Keystore.Driver != "memory" {
		logger.L().Warn("private keys stored unsealed (security.master_key vacío)")
	}
	return kc, nil
}

// openApp carga config, logger, store y ring listo para usar.
func openApp(ctx context.Context, opts *rootOptions, m *metrics.Metrics) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	initLogger(cfg)

	kc, err := storeConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, closer, err := keystore.Open(ctx, kc)
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}

	rotation := cfg.RotationEnabled()
	ring, err := jwt.OpenKeyRing(ctx, store, jwt.KeyRingOptions{
		Algorithm:       keystore.Algorithm(cfg.JWT.Algorithm),
		RotationEnabled: &rotation,
		Metrics:         m,
	})
	if err != nil {
		_ = closer()
		return nil, fmt.Errorf("load key ring: %w", err)
	}
	tokens := jwt.NewTokenService(ring, jwt.TokenServiceConfig{
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.TokenDuration(),
		Metrics:  m,
	})
	return &app{cfg: cfg, store: store, closer: closer, ring: ring, tokens: tokens, metrics: m}, nil
}

func (a *app) Close() {
	if a.closer != nil {
		if err := a.closer(); err != nil {
			logger.L().Warn("keystore close failed", logger.Err(err))
		}
	}
	_ = logger.Sync()
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// version se pisa en build con -ldflags "-X main.version=...".
var version = "dev"
