package jwt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/tokensmith/internal/keystore"
	"github.com/dropDatabas3/tokensmith/internal/metrics"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
)

// RingState es el ciclo de vida del KeyRing: Uninitialized → Loading → Ready.
type RingState int32

const (
	StateUninitialized RingState = iota
	StateLoading
	StateReady
)

func (s RingState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	}
	return "uninitialized"
}

// KeyRingOptions configura un KeyRing. El valor cero es usable (RS256, rotación habilitada).
type KeyRingOptions struct {
	Algorithm       keystore.Algorithm
	RotationEnabled *bool
	Metrics         *metrics.Metrics
	Clock           func() time.Time

	// generate permite a los tests inyectar un generador más barato o que falle.
	generate func(alg keystore.Algorithm, id string, now time.Time) (keystore.KeyPair, error)
}

// KeyInfo es la vista pública de una clave del ring (sin la privada).
type KeyInfo struct {
	ID        string
	Algorithm keystore.Algorithm
	PublicKey []byte
	CreatedAt time.Time
	Active    bool
}

// KeyRing mantiene en memoria todas las claves conocidas y cuál firma.
// Es la única dueña de los pares una vez cargados; el KeyStore es solo el respaldo durable.
//
// Lecturas concurrentes con RLock; Rotate/Remove/Load toman el lock de escritura
// solo para persistir y registrar (la generación de claves ocurre antes, sin lock).
type KeyRing struct {
	store    keystore.KeyStore
	alg      keystore.Algorithm
	rotation bool
	metrics  *metrics.Metrics
	now      func() time.Time
	generate func(keystore.Algorithm, string, time.Time) (keystore.KeyPair, error)
	log      *zap.Logger

	state   atomic.Int32
	ready   chan struct{}
	version atomic.Uint64

	mu      sync.RWMutex
	keys    map[string]keystore.KeyPair
	current string
}

// NewKeyRing crea un ring Uninitialized. Hay que llamar Load antes de usarlo.
func NewKeyRing(store keystore.KeyStore, opts KeyRingOptions) *KeyRing {
	r := &KeyRing{
		store:    store,
		alg:      opts.Algorithm,
		rotation: opts.RotationEnabled == nil || *opts.RotationEnabled,
		metrics:  opts.Metrics,
		now:      opts.Clock,
		generate: opts.generate,
		log:      logger.Named("keyring"),
		ready:    make(chan struct{}),
		keys:     make(map[string]keystore.KeyPair),
	}
	if r.alg == "" {
		r.alg = keystore.RS256
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.generate == nil {
		r.generate = GenerateKeyPair
	}
	return r
}

// OpenKeyRing = NewKeyRing + Load.
func OpenKeyRing(ctx context.Context, store keystore.KeyStore, opts KeyRingOptions) (*KeyRing, error) {
	r := NewKeyRing(store, opts)
	if err := r.Load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Load lee todas las claves del store. Con el store vacío genera y persiste una
// (bootstrap); si no, activa la de id lexicográficamente mayor.
// Si falla, el ring vuelve a Uninitialized y se puede reintentar.
// Sobre un ring ya Ready es no-op.
func (r *KeyRing) Load(ctx context.Context) (err error) {
	if !r.state.CompareAndSwap(int32(StateUninitialized), int32(StateLoading)) {
		if r.State() == StateReady {
			return nil
		}
		return fmt.Errorf("%w: load already in progress", ErrRingNotReady)
	}
	start := time.Now()
	defer func() {
		if err != nil {
			r.state.Store(int32(StateUninitialized))
			r.log.Error("keyring load failed", logger.Err(err))
		}
	}()

	pairs, err := r.store.ListAll(ctx)
	if err != nil {
		return err
	}

	keys := make(map[string]keystore.KeyPair, len(pairs))
	for _, p := range pairs {
		if _, err := parseKeyPair(p); err != nil {
			return fmt.Errorf("keyring: load: %w", err)
		}
		keys[p.ID] = p.Clone()
	}

	bootstrapped := false
	if len(keys) == 0 {
		p, err := r.newPair()
		if err != nil {
			return err
		}
		if err := r.store.Put(ctx, p); err != nil {
			return err
		}
		keys[p.ID] = p
		bootstrapped = true
	}

	current := latestID(keys)

	r.mu.Lock()
	r.keys = keys
	r.current = current
	r.version.Add(1)
	r.mu.Unlock()
	r.state.Store(int32(StateReady))
	close(r.ready)

	r.metrics.SetKeyCount(len(keys))
	if bootstrapped {
		r.metrics.KeyRotated(metrics.ResultOK)
	}
	logger.Perf(r.log, logger.ScopeTask, start,
		zap.String("event", "keyring_loaded"),
		logger.Count(len(keys)),
		logger.KeyID(current),
		logger.Bool("bootstrapped", bootstrapped))
	r.log.Info("keyring ready", logger.KeyID(current), logger.Count(len(keys)), logger.Bool("bootstrapped", bootstrapped))
	return nil
}

// latestID elige el id lexicográficamente mayor como "el más reciente".
func latestID(keys map[string]keystore.KeyPair) string {
	var latest string
	for id := range keys {
		if id > latest {
			latest = id
		}
	}
	return latest
}

// newPair genera un par con id nuevo. CPU-bound: nunca llamar con r.mu tomado.
func (r *KeyRing) newPair() (keystore.KeyPair, error) {
	now := r.now()
	id, err := NewKeyID(now)
	if err != nil {
		return keystore.KeyPair{}, err
	}
	return r.generate(r.alg, id, now)
}

// State devuelve el estado actual del ciclo de vida.
func (r *KeyRing) State() RingState { return RingState(r.state.Load()) }

func (r *KeyRing) Ready() bool { return r.State() == StateReady }

// WaitReady bloquea hasta que el ring esté Ready o ctx termine.
func (r *KeyRing) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrRingNotReady, ctx.Err())
	}
}

func (r *KeyRing) checkReady() error {
	if r.State() != StateReady {
		return ErrRingNotReady
	}
	return nil
}

// Algorithm es el algoritmo con el que se generan claves nuevas.
func (r *KeyRing) Algorithm() keystore.Algorithm { return r.alg }

func (r *KeyRing) RotationEnabled() bool { return r.rotation }

// Version cambia cada vez que cambia el conjunto de claves o la activa.
func (r *KeyRing) Version() uint64 { return r.version.Load() }

// Rotate genera una clave nueva, la persiste y la activa. Las anteriores quedan
// para verificación. Si el store falla el ring queda exactamente como estaba.
func (r *KeyRing) Rotate(ctx context.Context) (string, error) {
	if err := r.checkReady(); err != nil {
		return "", err
	}
	if !r.rotation {
		r.metrics.KeyRotated("disabled")
		return "", ErrRotationDisabled
	}
	start := time.Now()

	p, err := r.newPair()
	if err != nil {
		r.metrics.KeyRotated(metrics.ResultError)
		return "", err
	}

	r.mu.Lock()
	for _, exists := r.keys[p.ID]; exists; _, exists = r.keys[p.ID] {
		if p.ID, err = NewKeyID(p.CreatedAt); err != nil {
			r.mu.Unlock()
			r.metrics.KeyRotated(metrics.ResultError)
			return "", err
		}
	}
	if err := r.store.Put(ctx, p); err != nil {
		r.mu.Unlock()
		r.metrics.KeyRotated(metrics.ResultError)
		r.log.Error("key rotation failed", logger.KeyID(p.ID), logger.Err(err))
		return "", err
	}
	previous := r.current
	r.keys[p.ID] = p
	r.current = p.ID
	n := len(r.keys)
	r.version.Add(1)
	r.mu.Unlock()

	r.metrics.KeyRotated(metrics.ResultOK)
	r.metrics.SetKeyCount(n)
	logger.Perf(r.log, logger.ScopeTask, start, zap.String("event", "key_rotated"), logger.KeyID(p.ID))
	r.log.Info("signing key rotated",
		logger.KeyID(p.ID), zap.String("previous_kid", previous), logger.Algorithm(string(p.Algorithm)), logger.Count(n))
	return p.ID, nil
}

// Remove borra una clave no activa del store y del ring. Un id ausente es no-op.
func (r *KeyRing) Remove(ctx context.Context, id string) error {
	if err := r.checkReady(); err != nil {
		return err
	}
	r.mu.Lock()
	if id == r.current {
		r.mu.Unlock()
		return ErrCannotRemoveActiveKey
	}
	if _, ok := r.keys[id]; !ok {
		r.mu.Unlock()
		return nil
	}
	if err := r.store.Delete(ctx, id); err != nil {
		r.mu.Unlock()
		r.log.Error("key removal failed", logger.KeyID(id), logger.Err(err))
		return err
	}
	delete(r.keys, id)
	n := len(r.keys)
	r.version.Add(1)
	r.mu.Unlock()

	r.metrics.KeyRemoved()
	r.metrics.SetKeyCount(n)
	r.log.Info("signing key removed", logger.KeyID(id), logger.Count(n))
	return nil
}

// SigningKey devuelve (una copia de) el par activo.
func (r *KeyRing) SigningKey() (keystore.KeyPair, error) {
	if err := r.checkReady(); err != nil {
		return keystore.KeyPair{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.keys[r.current]
	if r.current == "" || !ok {
		return keystore.KeyPair{}, ErrNoSigningKey
	}
	return p.Clone(), nil
}

// VerificationKey devuelve el par con ese id, activo o histórico.
func (r *KeyRing) VerificationKey(id string) (keystore.KeyPair, error) {
	if err := r.checkReady(); err != nil {
		return keystore.KeyPair{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.keys[id]
	if !ok {
		return keystore.KeyPair{}, fmt.Errorf("%w: %s", ErrUnknownKey, id)
	}
	return p.Clone(), nil
}

// ActiveKeyID devuelve el kid que firma.
func (r *KeyRing) ActiveKeyID() (string, error) {
	if err := r.checkReady(); err != nil {
		return "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == "" {
		return "", ErrNoSigningKey
	}
	return r.current, nil
}

// Keys devuelve un snapshot consistente de la parte pública, ordenado por id,
// junto con la versión a la que corresponde.
func (r *KeyRing) Keys() ([]KeyInfo, uint64, error) {
	if err := r.checkReady(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	out := make([]KeyInfo, 0, len(r.keys))
	for id, p := range r.keys {
		out = append(out, KeyInfo{
			ID:        id,
			Algorithm: p.Algorithm,
			PublicKey: append([]byte(nil), p.PublicKey...),
			CreatedAt: p.CreatedAt,
			Active:    id == r.current,
		})
	}
	v := r.version.Load()
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, v, nil
}

// IsStorageError es un atajo para la capa HTTP/CLI.
func IsStorageError(err error) bool { return errors.Is(err, keystore.ErrStorage) }
