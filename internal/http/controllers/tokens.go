// Package controllers implementa los handlers HTTP sobre el core de tokens y claves.
package controllers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/tokensmith/internal/http/dto"
	"github.com/dropDatabas3/tokensmith/internal/http/errors"
	"github.com/dropDatabas3/tokensmith/internal/http/helpers"
	"github.com/dropDatabas3/tokensmith/internal/jwt"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
)

// descripciones por tipo de servicio que pide el token
var serviceDescriptions = map[string]string{
	"user":  "UserService",
	"other": "OtherService",
}

// TokensController maneja /api/tokens/*.
type TokensController struct {
	tokens *jwt.TokenService
}

func NewTokensController(tokens *jwt.TokenService) *TokensController {
	return &TokensController{tokens: tokens}
}

// Generate maneja POST /api/tokens/generate.
func (c *TokensController) Generate(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("TokensController.Generate"))

	var req dto.GenerateTokenRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	subject := strings.TrimSpace(req.Type)
	desc, ok := serviceDescriptions[subject]
	if !ok {
		errors.WriteError(w, r, errors.ErrInvalidBody.WithDetail(`type must be "user" or "other"`))
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	token, err := c.tokens.CreateToken(subject, jwt.Claims{
		"id":          jwt.StringClaim(id.String()),
		"description": jwt.StringClaim(desc),
	}, 0)
	if err != nil {
		log.Error("token generation failed", logger.Err(err))
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.GenerateTokenResponse{Token: token})
}

// Validate maneja POST /api/tokens/validate. Cualquier token inválido responde 401.
func (c *TokensController) Validate(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateTokenRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		errors.WriteError(w, r, errors.ErrInvalidBody.WithDetail("token is required"))
		return
	}

	payload, err := c.tokens.VerifyToken(strings.TrimSpace(req.Token), nil)
	if err != nil {
		if stderrors.Is(err, jwt.ErrRingNotReady) {
			errors.WriteError(w, r, err)
			return
		}
		detail := "invalid"
		if reason, ok := jwt.ReasonOf(err); ok {
			detail = string(reason)
		} else if stderrors.Is(err, jwt.ErrUnknownKey) {
			detail = "unknown-key"
		} else if stderrors.Is(err, jwt.ErrInvalidTokenFormat) {
			detail = "invalid-format"
		}
		errors.WriteError(w, r, errors.ErrInvalidToken.WithDetail(detail).WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ValidateTokenResponse{
		Message: "Your token is valid",
		Payload: payload,
	})
}
