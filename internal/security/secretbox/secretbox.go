// Package secretbox sella material sensible (PEM de claves privadas) con AES-256-GCM.
//
// La clave AES no es la master key directa: se deriva con HKDF-SHA256 usando un
// "purpose" como info, así la misma master key no se reutiliza entre usos distintos.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	nonceSizeGCM      = 12
	requiredKeyLength = 32
	sep               = "|" // base64(nonce)|base64(ciphertext)

	// PurposePrivateKey es el info HKDF para claves privadas de firma.
	PurposePrivateKey = "tokensmith/signing-private-key/v1"
)

var (
	ErrInvalidKey    = errors.New("secretbox: master key must decode to 32 bytes")
	ErrInvalidFormat = errors.New("secretbox: expected base64(nonce)|base64(ciphertext)")
	ErrDecrypt       = errors.New("secretbox: authentication failed")
)

// Box cifra/descifra con una clave derivada. Es seguro para uso concurrente.
type Box struct {
	aead cipher.AEAD
}

// New crea un Box a partir de una master key (base64 std/raw, hex de 64 chars,
// o 32 bytes crudos) y un purpose.
func New(masterKey, purpose string) (*Box, error) {
	raw, err := ParseKey(masterKey)
	if err != nil {
		return nil, err
	}
	return NewFromBytes(raw, purpose)
}

// NewFromBytes crea un Box desde 32 bytes crudos.
func NewFromBytes(master []byte, purpose string) (*Box, error) {
	if len(master) != requiredKeyLength {
		return nil, ErrInvalidKey
	}
	derived := make([]byte, requiredKeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(purpose)), derived); err != nil {
		return nil, fmt.Errorf("secretbox: hkdf: %w", err)
	}
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("secretbox: aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secretbox: cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

// ParseKey acepta base64 (std o raw), hex (64 chars) o 32 bytes crudos.
func ParseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if len(key) == 2*requiredKeyLength {
		if b, err := hex.DecodeString(key); err == nil {
			return b, nil
		}
	}
	if len(key) == requiredKeyLength {
		return []byte(key), nil
	}
	return nil, ErrInvalidKey
}

// GenerateKey genera una master key nueva en base64 (para `keys gen-master`).
func GenerateKey() (string, error) {
	k := make([]byte, requiredKeyLength)
	if _, err := rand.Read(k); err != nil {
		return "", fmt.Errorf("secretbox: random: %w", err)
	}
	return base64.StdEncoding.EncodeToString(k), nil
}

// Seal cifra plain y devuelve base64(nonce)|base64(ciphertext).
func (b *Box) Seal(plain []byte) (string, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open revierte Seal.
func (b *Box) Open(sealed string) ([]byte, error) {
	parts := strings.Split(sealed, sep)
	if len(parts) != 2 {
		return nil, ErrInvalidFormat
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSizeGCM {
		return nil, ErrInvalidFormat
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidFormat
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}
