package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dropDatabas3/tokensmith/internal/http/router"
	"github.com/dropDatabas3/tokensmith/internal/jwt"
	"github.com/dropDatabas3/tokensmith/internal/keystore"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
)

func TestMain(m *testing.M) {
	restore := logger.Replace(zap.NewNop())
	code := m.Run()
	restore()
	os.Exit(code)
}

// writeConfig arma un YAML con store fs en un tempdir.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "jwt:\n  algorithm: ES256\n  issuer: https://cli.test\n  audience: cli\n" +
		"keystore:\n  driver: fs\n  fs:\n    dir: " + filepath.Join(dir, "keys") + "\n" + extra
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestKeysLifecycle(t *testing.T) {
	cfg := writeConfig(t, "")
	base := []string{"--config", cfg, "--env-file", ""}

	out, err := run(t, append([]string{"keys", "list"}, base...)...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2, out)
	first := strings.Fields(lines[1])
	require.Equal(t, "*", first[0])
	firstKid := first[1]
	assert.Equal(t, "ES256", first[2])

	out, err = run(t, append([]string{"keys", "rotate"}, base...)...)
	require.NoError(t, err)
	newKid := strings.TrimSpace(out)
	assert.NotEqual(t, firstKid, newKid)

	_, err = run(t, append([]string{"keys", "remove", newKid}, base...)...)
	assert.ErrorIs(t, err, jwt.ErrCannotRemoveActiveKey)

	out, err = run(t, append([]string{"keys", "remove", firstKid}, base...)...)
	require.NoError(t, err)
	assert.Contains(t, out, firstKid)

	out, err = run(t, append([]string{"keys", "list"}, base...)...)
	require.NoError(t, err)
	assert.NotContains(t, out, firstKid)
	assert.Contains(t, out, newKid)
}

func TestKeysRotate_Disabled(t *testing.T) {
	cfg := writeConfig(t, "")
	// env pisa jwt.key_rotation_enabled
	t.Setenv("JWT_KEY_ROTATION_ENABLED", "false")
	_, err := run(t, "keys", "rotate", "--config", cfg, "--env-file", "")
	assert.ErrorIs(t, err, jwt.ErrRotationDisabled)
}

func TestTokenIssueVerify(t *testing.T) {
	cfg := writeConfig(t, "")
	base := []string{"--config", cfg, "--env-file", ""}

	out, err := run(t, append([]string{"token", "issue", "alice",
		"--ttl", "5m", "--claim", "role=admin", "--claim", "level=3", "--claim", `meta={"beta":true}`}, base...)...)
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.Len(t, strings.Split(token, "."), 3)

	out, err = run(t, append([]string{"token", "verify", token}, base...)...)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "alice", payload["sub"])
	assert.Equal(t, "https://cli.test", payload["iss"])
	assert.Equal(t, "admin", payload["role"])
	assert.Equal(t, float64(3), payload["level"])
	assert.Equal(t, map[string]any{"beta": true}, payload["meta"])
	assert.InDelta(t, 300, payload["exp"].(float64)-payload["iat"].(float64), 1)

	_, err = run(t, append([]string{"token", "verify", token, "--audience", "other"}, base...)...)
	reason, ok := jwt.ReasonOf(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, jwt.ReasonAudienceMismatch, reason)
}

func TestTokenIssue_BadClaim(t *testing.T) {
	cfg := writeConfig(t, "")
	_, err := run(t, "token", "issue", "bob", "--claim", "sub=x", "--config", cfg, "--env-file", "")
	assert.ErrorContains(t, err, "reserved")
}

func TestParseClaims(t *testing.T) {
	c, err := parseClaims([]string{"a=hello", "b=true", "c=1.5", `d="quoted"`, "e=x=y"})
	require.NoError(t, err)
	s, _ := c["a"].Str()
	assert.Equal(t, "hello", s)
	b, _ := c["b"].Bool()
	assert.True(t, b)
	n, _ := c["c"].Num()
	assert.Equal(t, 1.5, n)
	s, _ = c["d"].Str()
	assert.Equal(t, "quoted", s)
	s, _ = c["e"].Str()
	assert.Equal(t, "x=y", s)

	for _, bad := range []string{"novalue", "=v", "arr=[1,2]", "n=null", "exp=1"} {
		_, err := parseClaims([]string{bad})
		assert.Error(t, err, bad)
	}

	c, err = parseClaims(nil)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestJWKSCommand(t *testing.T) {
	cfg := writeConfig(t, "")
	out, err := run(t, "jwks", "--config", cfg, "--env-file", "")
	require.NoError(t, err)
	var set jwt.JWKS
	require.NoError(t, json.Unmarshal([]byte(out), &set))
	require.Len(t, set.Keys, 1)
	assert.Equal(t, "EC", set.Keys[0].Kty)
	assert.Equal(t, "P-256", set.Keys[0].Crv)
}

func TestSealedStore(t *testing.T) {
	out, err := run(t, "keys", "gen-master")
	require.NoError(t, err)
	master := strings.TrimSpace(out)

	cfg := writeConfig(t, "security:\n  master_key: "+master+"\n")
	base := []string{"--config", cfg, "--env-file", ""}
	_, err = run(t, append([]string{"keys", "list"}, base...)...)
	require.NoError(t, err)

	// con otra master key el store no abre
	other, err := run(t, "keys", "gen-master")
	require.NoError(t, err)
	t.Setenv("KEYS_MASTER_KEY", strings.TrimSpace(other))
	_, err = run(t, append([]string{"keys", "list"}, base...)...)
	assert.Error(t, err)
}

func TestConfig_Invalid(t *testing.T) {
	cfg := writeConfig(t, "")
	t.Setenv("JWT_ALGORITHM", "HS256")
	_, err := run(t, "keys", "list", "--config", cfg, "--env-file", "")
	assert.Error(t, err)
}

func TestRemoteCommands(t *testing.T) {
	rotation := true
	store := keystore.NewMemoryStore()
	ring, err := jwt.OpenKeyRing(context.Background(), store, jwt.KeyRingOptions{Algorithm: keystore.ES256, RotationEnabled: &rotation})
	require.NoError(t, err)
	srv := httptest.NewServer(router.New(router.Deps{
		Ring:        ring,
		Tokens:      jwt.NewTokenService(ring, jwt.TokenServiceConfig{Issuer: "i", Audience: "a", TTL: time.Minute}),
		Store:       store,
		AdminAPIKey: "adm",
	}))
	defer srv.Close()

	out, err := run(t, "remote", "ping", "--url", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(out))

	_, err = run(t, "remote", "rotate", "--url", srv.URL)
	assert.ErrorContains(t, err, "admin key")

	_, err = run(t, "remote", "rotate", "--url", srv.URL, "--admin-key", "wrong")
	assert.ErrorContains(t, err, "status=401")

	out, err = run(t, "remote", "rotate", "--url", srv.URL, "--admin-key", "adm", "--out", "json")
	require.NoError(t, err)
	active, _ := ring.ActiveKeyID()
	assert.Contains(t, out, active)

	out, err = run(t, "remote", "keys", "--url", srv.URL, "--admin-key", "adm")
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 2)

	_, err = run(t, "remote", "validate", "not-a-token", "--url", srv.URL)
	assert.ErrorContains(t, err, "status=401")
}
