package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el fixed window en proceso; sirve con una sola réplica.
type MemoryLimiter struct {
	mu     sync.Mutex
	hits   *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		hits:   gocache.New(window, 2*window),
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.window)
	k := fmt.Sprintf("%s:%d", sanitizeKey(key), winStart.Unix())
	ttl := winStart.Add(l.window).Sub(now)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.hits.Get(k); !ok {
		l.hits.Set(k, int64(0), ttl)
	}
	hits, err := l.hits.IncrementInt64(k, 1)
	if err != nil {
		return Result{}, err
	}
	return newResult(hits, l.max, ttl, l.window), nil
}
