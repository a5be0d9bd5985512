package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/tokensmith/internal/http/dto"
	"github.com/dropDatabas3/tokensmith/internal/http/errors"
	"github.com/dropDatabas3/tokensmith/internal/http/helpers"
	"github.com/dropDatabas3/tokensmith/internal/jwt"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
)

// KeysController publica las claves y expone rotación/borrado para admins.
type KeysController struct {
	ring      *jwt.KeyRing
	publisher *jwt.Publisher
}

func NewKeysController(ring *jwt.KeyRing, publisher *jwt.Publisher) *KeysController {
	return &KeysController{ring: ring, publisher: publisher}
}

// JWKS maneja GET /.well-known/jwks.json
func (c *KeysController) JWKS(w http.ResponseWriter, r *http.Request) {
	b, err := c.publisher.JWKSJSON()
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteRawJSON(w, http.StatusOK, b)
}

// PublicKeys maneja GET /api/keys: kid → {kty, alg, use, key}.
func (c *KeysController) PublicKeys(w http.ResponseWriter, r *http.Request) {
	set, err := c.publisher.PublicKeySet()
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, set)
}

// List maneja GET /admin/keys.
func (c *KeysController) List(w http.ResponseWriter, r *http.Request) {
	keys, _, err := c.ring.Keys()
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	out := make([]dto.KeyItem, 0, len(keys))
	for _, k := range keys {
		out = append(out, dto.KeyItem{KID: k.ID, Algorithm: string(k.Algorithm), CreatedAt: k.CreatedAt, Active: k.Active})
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Rotate maneja POST /admin/keys/rotate.
func (c *KeysController) Rotate(w http.ResponseWriter, r *http.Request) {
	kid, err := c.ring.Rotate(r.Context())
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("key rotated via admin api", logger.KeyID(kid))
	helpers.WriteJSON(w, http.StatusOK, dto.RotateKeyResponse{KID: kid})
}

// Remove maneja DELETE /admin/keys/{kid}.
func (c *KeysController) Remove(w http.ResponseWriter, r *http.Request) {
	kid := chi.URLParam(r, "kid")
	if err := c.ring.Remove(r.Context(), kid); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("key removed via admin api", logger.KeyID(kid))
	w.WriteHeader(http.StatusNoContent)
}
