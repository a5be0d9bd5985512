package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tokensmith/internal/keystore"
)

func TestPublicKeySet_IncludesHistoricalDropsRemoved(t *testing.T) {
	ctx := context.Background()
	ring := openRing(t, keystore.NewMemoryStore(), keystore.ES256, nil)
	pub := NewPublisher(ring)

	first, _ := ring.ActiveKeyID()
	second, err := ring.Rotate(ctx)
	require.NoError(t, err)

	set, err := pub.PublicKeySet()
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Contains(t, set, first)
	assert.Contains(t, set, second)
	e := set[first]
	assert.Equal(t, "EC", e.Kty)
	assert.Equal(t, "ES256", e.Alg)
	assert.Equal(t, "sig", e.Use)
	assert.Contains(t, e.Key, "BEGIN PUBLIC KEY")

	_, err = ring.Rotate(ctx)
	require.NoError(t, err)
	require.NoError(t, ring.Remove(ctx, first))
	set, err = pub.PublicKeySet()
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.NotContains(t, set, first)
}

func TestJWKS_RSAComponents(t *testing.T) {
	ring := openRing(t, keystore.NewMemoryStore(), keystore.RS256, nil)
	pair, err := ring.SigningKey()
	require.NoError(t, err)
	k, err := parseKeyPair(pair)
	require.NoError(t, err)
	rsaPub := k.pub.(*rsa.PublicKey)

	set, err := NewPublisher(ring).JWKS()
	require.NoError(t, err)
	require.Len(t, set.Keys, 1)
	j := set.Keys[0]
	assert.Equal(t, "RSA", j.Kty)
	assert.Equal(t, pair.ID, j.Kid)
	assert.Equal(t, "AQAB", j.E)

	n, err := base64.RawURLEncoding.DecodeString(j.N)
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).SetBytes(n).Cmp(rsaPub.N))
}

func TestJWKS_ECComponents(t *testing.T) {
	ring := openRing(t, keystore.NewMemoryStore(), keystore.ES256, nil)
	set, err := NewPublisher(ring).JWKS()
	require.NoError(t, err)
	require.Len(t, set.Keys, 1)
	j := set.Keys[0]
	assert.Equal(t, "EC", j.Kty)
	assert.Equal(t, "P-256", j.Crv)

	x, _ := base64.RawURLEncoding.DecodeString(j.X)
	y, _ := base64.RawURLEncoding.DecodeString(j.Y)
	assert.Len(t, x, 32)
	assert.Len(t, y, 32)
	pk := &ecdsa.PublicKey{Curve: elliptic.P256(), X: new(big.Int).SetBytes(x), Y: new(big.Int).SetBytes(y)}
	assert.True(t, pk.Curve.IsOnCurve(pk.X, pk.Y))
}

func TestJWKSJSON_CachedPerVersion(t *testing.T) {
	ctx := context.Background()
	ring := openRing(t, keystore.NewMemoryStore(), keystore.ES256, nil)
	pub := NewPublisher(ring)

	a, err := pub.JWKSJSON()
	require.NoError(t, err)
	b, err := pub.JWKSJSON()
	require.NoError(t, err)
	assert.Same(t, &a[0], &b[0])

	_, err = ring.Rotate(ctx)
	require.NoError(t, err)
	c, err := pub.JWKSJSON()
	require.NoError(t, err)

	var set JWKS
	require.NoError(t, json.Unmarshal(c, &set))
	assert.Len(t, set.Keys, 2)
}

func TestJWKSJSON_Concurrent(t *testing.T) {
	ring := openRing(t, keystore.NewMemoryStore(), keystore.ES256, nil)
	pub := NewPublisher(ring)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := pub.JWKSJSON()
			assert.NoError(t, err)
			assert.NotEmpty(t, b)
		}()
	}
	wg.Wait()
}

func TestPublisher_NotReady(t *testing.T) {
	pub := NewPublisher(NewKeyRing(keystore.NewMemoryStore(), KeyRingOptions{}))
	_, err := pub.PublicKeySet()
	assert.ErrorIs(t, err, ErrRingNotReady)
	_, err = pub.JWKSJSON()
	assert.ErrorIs(t, err, ErrRingNotReady)
}
