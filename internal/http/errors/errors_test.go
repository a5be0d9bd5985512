package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tokensmith/internal/jwt"
	"github.com/dropDatabas3/tokensmith/internal/keystore"
)

func TestFromError_StatusTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"format", fmt.Errorf("%w: bad", jwt.ErrInvalidTokenFormat), 400, "INVALID_TOKEN_FORMAT"},
		{"unknown", fmt.Errorf("%w: k1", jwt.ErrUnknownKey), 401, "UNKNOWN_KEY"},
		{"expired", &jwt.TokenVerificationError{Reason: jwt.ReasonExpired}, 401, "INVALID_TOKEN"},
		{"rotation", jwt.ErrRotationDisabled, 403, "ROTATION_DISABLED"},
		{"active", jwt.ErrCannotRemoveActiveKey, 400, "CANNOT_REMOVE_ACTIVE_KEY"},
		{"nokey", jwt.ErrNoSigningKey, 500, "NO_SIGNING_KEY"},
		{"notready", jwt.ErrRingNotReady, 503, "NOT_READY"},
		{"storage", &keystore.StorageError{Driver: "fs", Op: "put", Err: stderrors.New("eio")}, 503, "STORAGE_UNAVAILABLE"},
		{"other", stderrors.New("boom"), 500, "INTERNAL_SERVER_ERROR"},
		{"app", ErrInvalidBody, 400, "INVALID_BODY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ae := FromError(tc.err)
			assert.Equal(t, tc.status, ae.HTTPStatus)
			assert.Equal(t, tc.code, ae.Code)
		})
	}
}

func TestFromError_VerificationReasonInDetail(t *testing.T) {
	ae := FromError(&jwt.TokenVerificationError{Reason: jwt.ReasonAudienceMismatch})
	assert.Equal(t, "audience-mismatch", ae.Detail)
	// no muta el predefinido
	assert.Empty(t, ErrInvalidToken.Detail)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	WriteError(rec, req, ErrRotationDisabled.WithDetail("policy"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ROTATION_DISABLED", body["code"])
	assert.Equal(t, "policy", body["detail"])
}
