package keystore

import (
	"context"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dropDatabas3/tokensmith/internal/util/atomicwrite"
)

const (
	docExt        = ".json"
	legacyPrivExt = ".key"
	legacyPubExt  = ".pub"
)

// FileStore guarda un documento JSON por clave en <dir>/<kid>.json.
//
// Garantías:
//   - Escritura atómica (tmp → fsync → rename), archivos 0600, directorio 0700.
//   - El directorio se crea al primer Put; si no existe, ListAll devuelve vacío.
//   - Con Sealer configurado la privada se guarda cifrada (private_key_enc).
//
// También lee el layout plano <kid>.key + <kid>.pub (PEM sueltos) para poder
// adoptar directorios de claves existentes; el algoritmo se infiere de la pública.
type FileStore struct {
	dir    string
	sealer Sealer
}

// NewFileStore crea el store. sealer puede ser nil (privadas en claro, solo dev).
func NewFileStore(dir string, sealer Sealer) *FileStore {
	return &FileStore{dir: filepath.Clean(dir), sealer: sealer}
}

// Dir retorna el directorio base.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id, ext string) string {
	return filepath.Join(s.dir, id+ext)
}

func (s *FileStore) Put(ctx context.Context, p KeyPair) error {
	if err := p.Validate(); err != nil {
		return wrapErr("fs", "put", p.ID, err)
	}
	data, err := encodeDocument(p, s.sealer)
	if err != nil {
		return wrapErr("fs", "put", p.ID, err)
	}
	if err := atomicwrite.WriteFile(s.path(p.ID, docExt), data, 0o600); err != nil {
		return wrapErr("fs", "put", p.ID, err)
	}
	return nil
}

func (s *FileStore) ListAll(ctx context.Context) ([]KeyPair, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("fs", "list", "", err)
	}

	seen := make(map[string]bool, len(entries))
	var out []KeyPair
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, docExt) {
			continue
		}
		id := strings.TrimSuffix(name, docExt)
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, wrapErr("fs", "read", id, err)
		}
		p, err := decodeDocument(data, s.sealer)
		if err != nil {
			return nil, wrapErr("fs", "decode", id, err)
		}
		if p.ID != id {
			return nil, wrapErr("fs", "decode", id, fmt.Errorf("document kid %q does not match file name", p.ID))
		}
		seen[id] = true
		out = append(out, p)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, legacyPrivExt) {
			continue
		}
		id := strings.TrimSuffix(name, legacyPrivExt)
		if seen[id] {
			continue
		}
		p, ok, err := s.readLegacy(id)
		if err != nil {
			return nil, wrapErr("fs", "read", id, err)
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// readLegacy lee <id>.key + <id>.pub. Un .key sin .pub se ignora (ok=false).
func (s *FileStore) readLegacy(id string) (KeyPair, bool, error) {
	priv, err := os.ReadFile(s.path(id, legacyPrivExt))
	if err != nil {
		return KeyPair{}, false, err
	}
	pub, err := os.ReadFile(s.path(id, legacyPubExt))
	if errors.Is(err, fs.ErrNotExist) {
		return KeyPair{}, false, nil
	}
	if err != nil {
		return KeyPair{}, false, err
	}
	alg, err := algorithmFromPublicPEM(pub)
	if err != nil {
		return KeyPair{}, false, err
	}
	p := KeyPair{ID: id, PrivateKey: priv, PublicKey: pub, Algorithm: alg, CreatedAt: fileModTime(s.path(id, legacyPrivExt))}
	if err := p.Validate(); err != nil {
		return KeyPair{}, false, err
	}
	return p, true, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return wrapErr("fs", "delete", id, err)
	}
	for _, ext := range []string{docExt, legacyPrivExt, legacyPubExt} {
		if err := os.Remove(s.path(id, ext)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return wrapErr("fs", "delete", id, err)
		}
	}
	return nil
}

// Ping verifica que el directorio sea accesible (o creable).
func (s *FileStore) Ping(ctx context.Context) error {
	st, err := os.Stat(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return wrapErr("fs", "ping", "", err)
	}
	if !st.IsDir() {
		return wrapErr("fs", "ping", "", fmt.Errorf("%s is not a directory", s.dir))
	}
	return nil
}

// algorithmFromPublicPEM infiere RS256/ES256 desde una pública PKIX.
func algorithmFromPublicPEM(pubPEM []byte) (Algorithm, error) {
	block, _ := pem.Decode(pubPEM)
	if block == nil {
		return "", errors.New("invalid public key PEM")
	}
	pk, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("parse public key: %w", err)
	}
	switch pk.(type) {
	case *rsa.PublicKey:
		return RS256, nil
	case *ecdsa.PublicKey:
		return ES256, nil
	default:
		return "", fmt.Errorf("unsupported public key type %T", pk)
	}
}

func fileModTime(p string) (t time.Time) {
	if st, err := os.Stat(p); err == nil {
		t = st.ModTime().UTC()
	}
	return t
}
