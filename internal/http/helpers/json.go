// Package helpers tiene utilidades de request/response JSON compartidas por los controllers.
package helpers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/dropDatabas3/tokensmith/internal/http/errors"
)

const maxBodyBytes = 1 << 20

// ReadJSON decodifica el body (máx 1MB). Devuelve un *errors.AppError listo para WriteError.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "application/json") {
		return errors.ErrInvalidBody.WithDetail("Content-Type debe ser application/json")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case stderrors.As(err, &mbe):
			return errors.ErrBodyTooLarge.WithCause(err)
		case stderrors.Is(err, io.EOF):
			return errors.ErrInvalidBody.WithDetail("empty body")
		}
		return errors.ErrInvalidJSON.WithCause(err)
	}
	return nil
}

// WriteJSON escribe una respuesta JSON.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteRawJSON escribe bytes ya serializados.
func WriteRawJSON(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
