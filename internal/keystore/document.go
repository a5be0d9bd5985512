package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sealer cifra la privada en reposo. *secretbox.Box lo implementa.
type Sealer interface {
	Seal(plain []byte) (string, error)
	Open(sealed string) ([]byte, error)
}

var errSealerRequired = errors.New("private key is sealed but no master key is configured")

// keyDocument es la representación JSON compartida por fs y redis.
type keyDocument struct {
	KID           string    `json:"kid"`
	Algorithm     string    `json:"algorithm"`
	PrivateKeyPEM string    `json:"private_key_pem,omitempty"`
	PrivateKeyEnc string    `json:"private_key_enc,omitempty"`
	PublicKeyPEM  string    `json:"public_key_pem"`
	CreatedAt     time.Time `json:"created_at"`
}

func encodeDocument(p KeyPair, sealer Sealer) ([]byte, error) {
	doc := keyDocument{
		KID:          p.ID,
		Algorithm:    string(p.Algorithm),
		PublicKeyPEM: string(p.PublicKey),
		CreatedAt:    p.CreatedAt.UTC(),
	}
	if sealer != nil {
		enc, err := sealer.Seal(p.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("seal private key: %w", err)
		}
		doc.PrivateKeyEnc = enc
	} else {
		doc.PrivateKeyPEM = string(p.PrivateKey)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func decodeDocument(data []byte, sealer Sealer) (KeyPair, error) {
	var doc keyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return KeyPair{}, fmt.Errorf("unmarshal key document: %w", err)
	}
	priv := []byte(doc.PrivateKeyPEM)
	if doc.PrivateKeyEnc != "" {
		if sealer == nil {
			return KeyPair{}, errSealerRequired
		}
		pt, err := sealer.Open(doc.PrivateKeyEnc)
		if err != nil {
			return KeyPair{}, fmt.Errorf("open private key: %w", err)
		}
		priv = pt
	}
	p := KeyPair{
		ID:         doc.KID,
		Algorithm:  Algorithm(doc.Algorithm),
		PrivateKey: priv,
		PublicKey:  []byte(doc.PublicKeyPEM),
		CreatedAt:  doc.CreatedAt,
	}
	if err := p.Validate(); err != nil {
		return KeyPair{}, err
	}
	return p, nil
}
