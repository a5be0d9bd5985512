package jwt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimValue_Accessors(t *testing.T) {
	s, ok := StringClaim("x").Str()
	assert.True(t, ok)
	assert.Equal(t, "x", s)
	_, ok = StringClaim("x").Num()
	assert.False(t, ok)

	n, ok := NumberClaim(2.5).Num()
	assert.True(t, ok)
	assert.Equal(t, 2.5, n)

	b, ok := BoolClaim(true).Bool()
	assert.True(t, ok)
	assert.True(t, b)

	inner := Claims{"a": StringClaim("b")}
	v := ObjectClaim(inner)
	inner["a"] = StringClaim("mutated")
	obj, ok := v.Object()
	require.True(t, ok)
	got, _ := obj["a"].Str()
	assert.Equal(t, "b", got)
	assert.True(t, ClaimValue{}.IsZero())
}

func TestClaimFromAny(t *testing.T) {
	v, err := ClaimFromAny(map[string]any{"x": 1.0, "y": map[string]any{"z": true}})
	require.NoError(t, err)
	assert.Equal(t, KindObject, v.Kind())

	_, err = ClaimFromAny([]any{"a"})
	assert.Error(t, err)
	_, err = ClaimFromAny(nil)
	assert.Error(t, err)
	_, err = ClaimFromAny(map[string]any{"bad": []any{}})
	assert.Error(t, err)

	n, err := ClaimFromAny(json.Number("12"))
	require.NoError(t, err)
	f, _ := n.Num()
	assert.Equal(t, 12.0, f)
}

func TestClaimsJSON(t *testing.T) {
	c := Claims{"s": StringClaim("v"), "o": ObjectClaim(Claims{"n": NumberClaim(1)})}
	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"v","o":{"n":1}}`, string(raw))

	var back Claims
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, c, back)

	_, err = json.Marshal(Claims{"z": {}})
	assert.Error(t, err)
}

func TestIsReserved(t *testing.T) {
	for _, k := range []string{"sub", "iss", "aud", "iat", "nbf", "exp", "jti"} {
		assert.True(t, IsReserved(k), k)
	}
	assert.False(t, IsReserved("role"))
}
