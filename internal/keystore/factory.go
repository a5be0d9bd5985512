package keystore

import (
	"context"
	"errors"
	"fmt"
)

// Config selecciona y configura un backend.
type Config struct {
	Driver string // memory | fs | postgres | redis | hybrid

	FSDir string

	PostgresDSN      string
	PostgresMaxConns int32

	Redis RedisConfig

	HybridPrimary  string
	HybridFallback string

	// Sealer opcional para cifrar privadas en reposo (fs, postgres, redis).
	Sealer Sealer
}

// Closer libera recursos del backend (pools, conexiones).
type Closer func() error

func noopCloser() error { return nil }

// Open construye el KeyStore configurado.
func Open(ctx context.Context, cfg Config) (KeyStore, Closer, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), noopCloser, nil
	case "fs", "":
		if cfg.FSDir == "" {
			return nil, nil, errors.New("keystore: fs driver requires a directory")
		}
		return NewFileStore(cfg.FSDir, cfg.Sealer), noopCloser, nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, nil, errors.New("keystore: postgres driver requires a DSN")
		}
		s, err := OpenPGStore(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns, cfg.Sealer)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		s, err := OpenRedisStore(ctx, cfg.Redis, cfg.Sealer)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "hybrid":
		if cfg.HybridPrimary == "hybrid" || cfg.HybridFallback == "hybrid" {
			return nil, nil, errors.New("keystore: hybrid cannot nest hybrid")
		}
		pc, fc := cfg, cfg
		pc.Driver, fc.Driver = cfg.HybridPrimary, cfg.HybridFallback
		primary, closePrimary, err := Open(ctx, pc)
		if err != nil {
			return nil, nil, fmt.Errorf("keystore: hybrid primary: %w", err)
		}
		fallback, closeFallback, err := Open(ctx, fc)
		if err != nil {
			_ = closePrimary()
			return nil, nil, fmt.Errorf("keystore: hybrid fallback: %w", err)
		}
		closer := func() error { return errors.Join(closePrimary(), closeFallback()) }
		return NewHybridStore(primary, fallback), closer, nil
	default:
		return nil, nil, fmt.Errorf("keystore: unknown driver %q", cfg.Driver)
	}
}
