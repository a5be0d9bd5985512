package keystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()
	mr, _ := newTestRedis(t)

	cases := []struct {
		name string
		cfg  Config
		want any
	}{
		{"memory", Config{Driver: "memory"}, &MemoryStore{}},
		{"fs", Config{Driver: "fs", FSDir: t.TempDir()}, &FileStore{}},
		{"redis", Config{Driver: "redis", Redis: RedisConfig{Addr: mr.Addr()}}, &RedisStore{}},
		{"hybrid", Config{Driver: "hybrid", HybridPrimary: "redis", HybridFallback: "fs", FSDir: t.TempDir(), Redis: RedisConfig{Addr: mr.Addr()}}, &HybridStore{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, closer, err := Open(ctx, tc.cfg)
			require.NoError(t, err)
			defer func() { assert.NoError(t, closer()) }()
			assert.IsType(t, tc.want, s)
			require.NoError(t, s.Put(ctx, testPair(t, "k1")))
			all, err := s.ListAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	for name, cfg := range map[string]Config{
		"unknown":       {Driver: "etcd"},
		"fs-no-dir":     {Driver: "fs"},
		"pg-no-dsn":     {Driver: "postgres"},
		"nested-hybrid": {Driver: "hybrid", HybridPrimary: "hybrid", HybridFallback: "fs"},
		"hybrid-bad":    {Driver: "hybrid", HybridPrimary: "memory", HybridFallback: "etcd"},
	} {
		_, _, err := Open(ctx, cfg)
		assert.Error(t, err, name)
	}
}
