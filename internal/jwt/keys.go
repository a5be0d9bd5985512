package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/tokensmith/internal/keystore"
)

const rsaBits = 2048

// GenerateKeyPair crea un par nuevo para alg: RSA 2048 (RS256) o EC P-256 (ES256).
// Privada en PKCS#8, pública en PKIX, ambas PEM.
func GenerateKeyPair(alg keystore.Algorithm, id string, now time.Time) (keystore.KeyPair, error) {
	var (
		priv crypto.Signer
		err  error
	)
	switch alg {
	case keystore.RS256:
		priv, err = rsa.GenerateKey(rand.Reader, rsaBits)
	case keystore.ES256:
		priv, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	default:
		return keystore.KeyPair{}, fmt.Errorf("unsupported algorithm %q", alg)
	}
	if err != nil {
		return keystore.KeyPair{}, fmt.Errorf("generate %s key: %w", alg, err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return keystore.KeyPair{}, err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(priv.Public())
	if err != nil {
		return keystore.KeyPair{}, err
	}
	return keystore.KeyPair{
		ID:         id,
		Algorithm:  alg,
		PrivateKey: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}),
		PublicKey:  pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
		CreatedAt:  now.UTC(),
	}, nil
}

// parsedKey es el material ya decodificado de un KeyPair.
type parsedKey struct {
	alg  keystore.Algorithm
	priv crypto.Signer
	pub  crypto.PublicKey
}

// parseKeyPair decodifica ambos PEM y verifica que correspondan entre sí y al algoritmo.
func parseKeyPair(p keystore.KeyPair) (*parsedKey, error) {
	pub, err := parsePublicKey(p.Algorithm, p.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("key %s: %w", p.ID, err)
	}
	priv, err := parsePrivateKey(p.Algorithm, p.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("key %s: %w", p.ID, err)
	}
	type equaler interface{ Equal(crypto.PublicKey) bool }
	if eq, ok := priv.Public().(equaler); !ok || !eq.Equal(pub) {
		return nil, fmt.Errorf("key %s: public key does not match private key", p.ID)
	}
	return &parsedKey{alg: p.Algorithm, priv: priv, pub: pub}, nil
}

func parsePublicKey(alg keystore.Algorithm, pemBytes []byte) (crypto.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("invalid public key PEM")
	}
	pk, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	if err := checkKeyType(alg, pk); err != nil {
		return nil, err
	}
	return pk, nil
}

func parsePrivateKey(alg keystore.Algorithm, pemBytes []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("invalid private key PEM")
	}
	k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	signer, ok := k.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("unsupported private key type %T", k)
	}
	if err := checkKeyType(alg, signer.Public()); err != nil {
		return nil, err
	}
	return signer, nil
}

func checkKeyType(alg keystore.Algorithm, pub crypto.PublicKey) error {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		if alg == keystore.RS256 {
			return nil
		}
	case *ecdsa.PublicKey:
		if alg == keystore.ES256 && k.Curve == elliptic.P256() {
			return nil
		}
	}
	return fmt.Errorf("key type %T does not match algorithm %s", pub, alg)
}

func signingMethod(alg keystore.Algorithm) (jwtv5.SigningMethod, error) {
	switch alg {
	case keystore.RS256:
		return jwtv5.SigningMethodRS256, nil
	case keystore.ES256:
		return jwtv5.SigningMethodES256, nil
	}
	return nil, fmt.Errorf("unsupported algorithm %q", alg)
}

// keyType mapea algoritmo → "kty" de JWK.
func keyType(alg keystore.Algorithm) string {
	if alg == keystore.ES256 {
		return "EC"
	}
	return "RSA"
}
