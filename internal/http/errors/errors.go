package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/tokensmith/internal/jwt"
	"github.com/dropDatabas3/tokensmith/internal/keystore"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// FromError convierte cualquier error (AppError, errores del core o genéricos) en AppError.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	if reason, ok := jwt.ReasonOf(err); ok {
		return ErrInvalidToken.WithDetail(string(reason)).WithCause(err)
	}
	switch {
	case stderrors.Is(err, jwt.ErrInvalidTokenFormat):
		return ErrInvalidTokenFormat.WithCause(err)
	case stderrors.Is(err, jwt.ErrUnknownKey):
		return ErrUnknownKey.WithCause(err)
	case stderrors.Is(err, jwt.ErrRotationDisabled):
		return ErrRotationDisabled.WithCause(err)
	case stderrors.Is(err, jwt.ErrCannotRemoveActiveKey):
		return ErrCannotRemoveActiveKey.WithCause(err)
	case stderrors.Is(err, jwt.ErrNoSigningKey):
		return ErrNoSigningKey.WithCause(err)
	case stderrors.Is(err, jwt.ErrRingNotReady):
		return ErrNotReady.WithCause(err)
	case stderrors.Is(err, keystore.ErrStorage):
		return ErrStorageUnavailable.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

// WriteError escribe la respuesta JSON {code, message, detail}. Los 5xx se loguean con la causa.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)
	if appErr.HTTPStatus >= 500 && r != nil {
		logger.From(r.Context()).Error("request failed",
			logger.String("code", appErr.Code), logger.Err(appErr.Err))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}
