// Package errors define los errores HTTP del servicio y su mapeo desde los errores del core.
package errors

import (
	"fmt"
	"net/http"
)

// AppError es el error estándar que viaja hasta la respuesta HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa original, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New crea un AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// WithDetail devuelve una COPIA con detail (no muta los predefinidos).
func (e *AppError) WithDetail(detail string) *AppError {
	out := *e
	out.Detail = detail
	return &out
}

// WithCause devuelve una COPIA con la causa.
func (e *AppError) WithCause(err error) *AppError {
	out := *e
	out.Err = err
	return &out
}

// ---------------------------------------------------------------------------------
// 4xx
// ---------------------------------------------------------------------------------

var (
	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidBody = &AppError{
		Code:       "INVALID_BODY",
		Message:    "Invalid request body",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidTokenFormat = &AppError{
		Code:       "INVALID_TOKEN_FORMAT",
		Message:    "El token no tiene un formato válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrCannotRemoveActiveKey = &AppError{
		Code:       "CANNOT_REMOVE_ACTIVE_KEY",
		Message:    "No se puede eliminar la clave de firma activa.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Se requiere autenticación.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidToken = &AppError{
		Code:       "INVALID_TOKEN",
		Message:    "Your token is invalid",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrUnknownKey = &AppError{
		Code:       "UNKNOWN_KEY",
		Message:    "El token fue firmado con una clave desconocida.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrRotationDisabled = &AppError{
		Code:       "ROTATION_DISABLED",
		Message:    "La rotación de claves está deshabilitada.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Método HTTP no permitido para este recurso.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrBodyTooLarge = &AppError{
		Code:       "BODY_TOO_LARGE",
		Message:    "El cuerpo de la solicitud excede el tamaño máximo permitido.",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}

	ErrRateLimited = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Demasiadas solicitudes, intentá más tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// ---------------------------------------------------------------------------------
// 5xx
// ---------------------------------------------------------------------------------

var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error inesperado en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrNoSigningKey = &AppError{
		Code:       "NO_SIGNING_KEY",
		Message:    "Failed to generate token",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "El servicio no está disponible temporalmente.",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrStorageUnavailable = &AppError{
		Code:       "STORAGE_UNAVAILABLE",
		Message:    "El almacenamiento de claves no está disponible.",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrNotReady = &AppError{
		Code:       "NOT_READY",
		Message:    "El key ring todavía no está inicializado.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
