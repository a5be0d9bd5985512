// Package dto define los cuerpos de request/response de la API HTTP.
package dto

import "github.com/dropDatabas3/tokensmith/internal/jwt"

// GenerateTokenRequest es el body de POST /api/tokens/generate.
type GenerateTokenRequest struct {
	Type string `json:"type"` // "user" | "other"
}

type GenerateTokenResponse struct {
	Token string `json:"token"`
}

// ValidateTokenRequest es el body de POST /api/tokens/validate.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

type ValidateTokenResponse struct {
	Message string      `json:"message"`
	Payload jwt.Payload `json:"payload"`
}
