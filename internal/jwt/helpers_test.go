package jwt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tokensmith/internal/keystore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// flakyStore envuelve un KeyStore y falla Put/Delete a pedido.
type flakyStore struct {
	keystore.KeyStore
	mu         sync.Mutex
	failPut    bool
	failDelete bool
	failList   bool
	puts       int
}

var errDisk = errors.New("disk full")

func (f *flakyStore) Put(ctx context.Context, p keystore.KeyPair) error {
	f.mu.Lock()
	fail := f.failPut
	f.puts++
	f.mu.Unlock()
	if fail {
		return &keystore.StorageError{Driver: "flaky", Op: "put", KeyID: p.ID, Err: errDisk}
	}
	return f.KeyStore.Put(ctx, p)
}

func (f *flakyStore) Delete(ctx context.Context, id string) error {
	if f.failDelete {
		return &keystore.StorageError{Driver: "flaky", Op: "delete", KeyID: id, Err: errDisk}
	}
	return f.KeyStore.Delete(ctx, id)
}

func (f *flakyStore) ListAll(ctx context.Context) ([]keystore.KeyPair, error) {
	if f.failList {
		return nil, &keystore.StorageError{Driver: "flaky", Op: "list", Err: errDisk}
	}
	return f.KeyStore.ListAll(ctx)
}

func boolPtr(b bool) *bool { return &b }

func openRing(t *testing.T, store keystore.KeyStore, alg keystore.Algorithm, clock *fakeClock) *KeyRing {
	t.Helper()
	opts := KeyRingOptions{Algorithm: alg}
	if clock != nil {
		opts.Clock = clock.Now
	}
	r, err := OpenKeyRing(context.Background(), store, opts)
	require.NoError(t, err)
	return r
}

func newService(t *testing.T, alg keystore.Algorithm) (*TokenService, *KeyRing, *fakeClock, keystore.KeyStore) {
	t.Helper()
	clock := newFakeClock()
	store := keystore.NewMemoryStore()
	ring := openRing(t, store, alg, clock)
	svc := NewTokenService(ring, TokenServiceConfig{
		Issuer:   "https://issuer.test",
		Audience: "svc-a",
		Clock:    clock.Now,
	})
	return svc, ring, clock, store
}
