package jwt

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// NewKeyID arma un id "key-YYYY-MM-DD-<8hex>" con la fecha UTC de now.
// Ordenar ids lexicográficamente ordena por día; dentro del mismo día el orden es aleatorio.
func NewKeyID(now time.Time) (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return "key-" + now.UTC().Format("2006-01-02") + "-" + hex.EncodeToString(b[:]), nil
}
