package dto

import "time"

// KeyItem es un elemento de GET /admin/keys (sin material privado).
type KeyItem struct {
	KID       string    `json:"kid"`
	Algorithm string    `json:"alg"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

type RotateKeyResponse struct {
	KID string `json:"kid"`
}
