package rate

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t time.Time) func() time.Time { return func() time.Time { return t } }

func exercise(t *testing.T, l Limiter) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d", i)
		assert.Equal(t, int64(3-i), res.Remaining)
		assert.Equal(t, int64(3), res.Limit)
	}
	res, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(4), res.CurrentHits)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	// otra key tiene su propia ventana
	res, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 5, 0, time.UTC)
	l := NewMemoryLimiter(3, time.Minute)
	l.now = fixedNow(start)
	exercise(t, l)

	// ventana siguiente
	l.now = fixedNow(start.Add(time.Minute))
	res, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.CurrentHits)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	start := time.Date(2025, 1, 1, 10, 0, 5, 0, time.UTC)
	l := NewRedisLimiter(client, "test:", 3, time.Minute)
	l.now = fixedNow(start)
	exercise(t, l)

	key := "test:10.0.0.1:" + strconv.FormatInt(start.Truncate(time.Minute).Unix(), 10)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute)
	assert.False(t, mr.Exists(key))
}

func TestRedisLimiter_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisLimiter(client, "", 3, time.Minute).Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	l, closeFn, err := New(ctx, Config{MaxRequests: 5, Window: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &MemoryLimiter{}, l)
	require.NoError(t, closeFn())

	mr := miniredis.RunT(t)
	l, closeFn, err = New(ctx, Config{Backend: "redis", RedisAddr: mr.Addr(), MaxRequests: 5, Window: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &RedisLimiter{}, l)
	require.NoError(t, closeFn())

	_, _, err = New(ctx, Config{Backend: "memcached", MaxRequests: 5, Window: time.Second})
	assert.Error(t, err)
	_, _, err = New(ctx, Config{MaxRequests: 0, Window: time.Second})
	assert.Error(t, err)
}
