package keystore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutListDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a, b := testPair(t, "key-a"), testPair(t, "key-b")
	require.NoError(t, s.Put(ctx, a))
	require.NoError(t, s.Put(ctx, b))

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.Delete(ctx, "key-a"))
	require.NoError(t, s.Delete(ctx, "missing"))

	all, err = s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "key-b", all[0].ID)
}

func TestMemoryStore_DoesNotAliasCallerSlices(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := testPair(t, "key-a")
	require.NoError(t, s.Put(ctx, p))

	p.PrivateKey[0] = 'X'
	all, _ := s.ListAll(ctx)
	assert.NotEqual(t, byte('X'), all[0].PrivateKey[0])
}

func TestMemoryStore_RejectsInvalidPair(t *testing.T) {
	err := NewMemoryStore().Put(context.Background(), KeyPair{ID: "../etc", Algorithm: RS256})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))
}

func TestValidateID(t *testing.T) {
	for _, ok := range []string{"key-2025-01-02-abcdef01", "a", "A.b_c-1"} {
		assert.NoError(t, ValidateID(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "../x", "a/b", "-lead", "a b"} {
		assert.Error(t, ValidateID(bad), bad)
	}
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("ES256")
	require.NoError(t, err)
	assert.Equal(t, ES256, a)

	_, err = ParseAlgorithm("HS256")
	assert.Error(t, err)
}
