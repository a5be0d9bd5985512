// Package keystore define el contrato de persistencia de pares de claves de firma
// y sus backends (memory, fs, postgres, redis, hybrid).
//
// El keystore es solo almacenamiento durable: no decide cuál clave es la activa
// ni genera claves. Eso es responsabilidad del KeyRing (internal/jwt).
package keystore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Algorithm de firma de un par de claves.
type Algorithm string

const (
	RS256 Algorithm = "RS256"
	ES256 Algorithm = "ES256"
)

// Valid indica si el algoritmo está soportado.
func (a Algorithm) Valid() bool { return a == RS256 || a == ES256 }

// ParseAlgorithm valida un string de algoritmo.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(s)
	if !a.Valid() {
		return "", fmt.Errorf("keystore: unsupported algorithm %q", s)
	}
	return a, nil
}

// KeyPair es un par privado/público PEM-encoded para un algoritmo.
// PrivateKey es PKCS#8 ("PRIVATE KEY"), PublicKey es PKIX ("PUBLIC KEY").
type KeyPair struct {
	ID         string
	PrivateKey []byte
	PublicKey  []byte
	Algorithm  Algorithm
	CreatedAt  time.Time
}

// Clone devuelve una copia profunda (los backends nunca comparten slices con el caller).
func (p KeyPair) Clone() KeyPair {
	out := p
	out.PrivateKey = append([]byte(nil), p.PrivateKey...)
	out.PublicKey = append([]byte(nil), p.PublicKey...)
	return out
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateID rechaza ids vacíos o que no sirven como nombre de archivo/clave.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) || id == "." || id == ".." {
		return fmt.Errorf("keystore: invalid key id %q", id)
	}
	return nil
}

// Validate chequea la forma del par (no la correspondencia criptográfica).
func (p KeyPair) Validate() error {
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	if !p.Algorithm.Valid() {
		return fmt.Errorf("keystore: key %s: unsupported algorithm %q", p.ID, p.Algorithm)
	}
	if len(p.PrivateKey) == 0 || len(p.PublicKey) == 0 {
		return fmt.Errorf("keystore: key %s: missing key material", p.ID)
	}
	return nil
}

// KeyStore es el repositorio durable de pares de claves.
//
//   - Put persiste o sobrescribe.
//   - ListAll devuelve todos los pares conocidos, sin orden garantizado.
//   - Delete elimina si existe; un id ausente es no-op.
//
// Todos los fallos de I/O se devuelven como *StorageError.
type KeyStore interface {
	Put(ctx context.Context, pair KeyPair) error
	ListAll(ctx context.Context) ([]KeyPair, error)
	Delete(ctx context.Context, id string) error
}

// Pinger lo implementan los backends que pueden chequear conectividad barata.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ErrStorage es el sentinel de todos los StorageError (errors.Is(err, ErrStorage)).
var ErrStorage = errors.New("keystore: storage error")

// StorageError envuelve un fallo del medio de persistencia.
type StorageError struct {
	Driver string
	Op     string
	KeyID  string
	Err    error
}

func (e *StorageError) Error() string {
	if e.KeyID != "" {
		return fmt.Sprintf("keystore %s: %s %s: %v", e.Driver, e.Op, e.KeyID, e.Err)
	}
	return fmt.Sprintf("keystore %s: %s: %v", e.Driver, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is hace que errors.Is(err, ErrStorage) funcione para cualquier StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// wrapErr devuelve nil para nil y no re-envuelve StorageErrors existentes.
func wrapErr(driver, op, id string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Driver: driver, Op: op, KeyID: id, Err: err}
}
