package rate

import (
	"context"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Config arma un Limiter. Backend: memory | redis.
type Config struct {
	Backend     string
	MaxRequests int
	Window      time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
}

// New construye el limiter configurado. El close libera el cliente Redis si lo hay.
func New(ctx context.Context, cfg Config) (Limiter, func() error, error) {
	if cfg.MaxRequests <= 0 || cfg.Window <= 0 {
		return nil, nil, fmt.Errorf("rate: max_requests and window must be > 0")
	}
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryLimiter(cfg.MaxRequests, cfg.Window), func() error { return nil }, nil
	case "redis":
		c := rdb.NewClient(&rdb.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("rate: redis ping: %w", err)
		}
		return NewRedisLimiter(c, cfg.Prefix, cfg.MaxRequests, cfg.Window), c.Close, nil
	}
	return nil, nil, fmt.Errorf("rate: unknown backend %q", cfg.Backend)
}
