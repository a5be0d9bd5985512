package keystore

import (
	"context"
	"sync"
)

// MemoryStore guarda pares en memoria. Útil para tests y modo efímero (dev).
type MemoryStore struct {
	mu    sync.RWMutex
	pairs map[string]KeyPair
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pairs: make(map[string]KeyPair)}
}

func (m *MemoryStore) Put(ctx context.Context, p KeyPair) error {
	if err := p.Validate(); err != nil {
		return wrapErr("memory", "put", p.ID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[p.ID] = p.Clone()
	return nil
}

func (m *MemoryStore) ListAll(ctx context.Context) ([]KeyPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]KeyPair, 0, len(m.pairs))
	for _, p := range m.pairs {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pairs, id)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
