package keystore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore guarda todos los pares en un hash <prefix>:keys (campo kid → documento JSON).
type RedisStore struct {
	client *redis.Client
	key    string
	sealer Sealer
	owned  bool
}

// RedisConfig configura la conexión de OpenRedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// OpenRedisStore conecta y hace ping.
func OpenRedisStore(ctx context.Context, cfg RedisConfig, sealer Sealer) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, wrapErr("redis", "open", "", fmt.Errorf("ping %s: %w", cfg.Addr, err))
	}
	s := NewRedisStore(rdb, cfg.Prefix, sealer)
	s.owned = true
	return s, nil
}

// NewRedisStore envuelve un cliente existente; Close no lo cierra.
func NewRedisStore(client *redis.Client, prefix string, sealer Sealer) *RedisStore {
	key := "keys"
	if prefix != "" {
		key = prefix + ":keys"
	}
	return &RedisStore{client: client, key: key, sealer: sealer}
}

func (s *RedisStore) Put(ctx context.Context, p KeyPair) error {
	if err := p.Validate(); err != nil {
		return wrapErr("redis", "put", p.ID, err)
	}
	data, err := encodeDocument(p, s.sealer)
	if err != nil {
		return wrapErr("redis", "put", p.ID, err)
	}
	return wrapErr("redis", "put", p.ID, s.client.HSet(ctx, s.key, p.ID, data).Err())
}

func (s *RedisStore) ListAll(ctx context.Context) ([]KeyPair, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, wrapErr("redis", "list", "", err)
	}
	out := make([]KeyPair, 0, len(all))
	for id, raw := range all {
		p, err := decodeDocument([]byte(raw), s.sealer)
		if err != nil {
			return nil, wrapErr("redis", "decode", id, err)
		}
		if p.ID != id {
			return nil, wrapErr("redis", "decode", id, fmt.Errorf("document kid %q does not match hash field", p.ID))
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return wrapErr("redis", "delete", id, s.client.HDel(ctx, s.key, id).Err())
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return wrapErr("redis", "ping", "", s.client.Ping(ctx).Err())
}

func (s *RedisStore) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}
