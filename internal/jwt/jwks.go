package jwt

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// PublishedKey es la entrada de PublicKeySet: {kty, alg, use, key}.
type PublishedKey struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Key string `json:"key"` // PEM PKIX
}

// JWK (RFC 7517) para RSA o EC.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Publisher expone la parte pública del ring a relying parties.
// El JSON del JWKS se cachea por versión del ring.
type Publisher struct {
	ring *KeyRing

	group singleflight.Group
	mu    sync.RWMutex
	ver   uint64
	json  []byte
}

func NewPublisher(ring *KeyRing) *Publisher {
	return &Publisher{ring: ring}
}

// PublicKeySet devuelve kid → {kty, alg, use, key} para todas las claves del ring,
// activa e históricas.
func (p *Publisher) PublicKeySet() (map[string]PublishedKey, error) {
	keys, _, err := p.ring.Keys()
	if err != nil {
		return nil, err
	}
	out := make(map[string]PublishedKey, len(keys))
	for _, k := range keys {
		out[k.ID] = PublishedKey{
			Kty: keyType(k.Algorithm),
			Alg: string(k.Algorithm),
			Use: "sig",
			Key: string(k.PublicKey),
		}
	}
	return out, nil
}

// JWKS arma el set RFC 7517.
func (p *Publisher) JWKS() (JWKS, error) {
	keys, _, err := p.ring.Keys()
	if err != nil {
		return JWKS{}, err
	}
	return buildJWKS(keys)
}

// JWKSJSON devuelve el JWKS serializado, reconstruyéndolo solo si cambió el ring.
func (p *Publisher) JWKSJSON() ([]byte, error) {
	v := p.ring.Version()
	p.mu.RLock()
	if p.json != nil && p.ver == v {
		b := p.json
		p.mu.RUnlock()
		return b, nil
	}
	p.mu.RUnlock()

	res, err, _ := p.group.Do(strconv.FormatUint(v, 10), func() (any, error) {
		keys, ver, err := p.ring.Keys()
		if err != nil {
			return nil, err
		}
		set, err := buildJWKS(keys)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(set)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		if ver >= p.ver {
			p.ver, p.json = ver, b
		}
		p.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func buildJWKS(keys []KeyInfo) (JWKS, error) {
	set := JWKS{Keys: make([]JWK, 0, len(keys))}
	for _, k := range keys {
		pub, err := parsePublicKey(k.Algorithm, k.PublicKey)
		if err != nil {
			return JWKS{}, fmt.Errorf("key %s: %w", k.ID, err)
		}
		j := JWK{Kty: keyType(k.Algorithm), Kid: k.ID, Alg: string(k.Algorithm), Use: "sig"}
		switch pk := pub.(type) {
		case *rsa.PublicKey:
			j.N = b64(pk.N.Bytes())
			j.E = b64(big.NewInt(int64(pk.E)).Bytes())
		case *ecdsa.PublicKey:
			size := (pk.Curve.Params().BitSize + 7) / 8
			j.Crv = pk.Curve.Params().Name
			j.X = b64(pk.X.FillBytes(make([]byte, size)))
			j.Y = b64(pk.Y.FillBytes(make([]byte, size)))
		}
		set.Keys = append(set.Keys, j)
	}
	return set, nil
}

func b64(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }
