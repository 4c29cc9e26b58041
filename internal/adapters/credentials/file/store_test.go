package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "credential key is empty"},
		{name: "whitespace", key: "   ", wantErr: "credential key is empty"},
		{name: "absolute", key: "/absolute/path", wantErr: "invalid credential key"},
		{name: "traversal", key: "../escape", wantErr: "invalid credential key"},
		{name: "traversal behind scheme", key: "openai://../../escape", wantErr: "invalid credential key"},
		{name: "missing scheme", key: "://builder", wantErr: "invalid credential key"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.key, "value")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	key := "openai://builder/api_key@20260214T120000Z"

	require.NoError(t, store.Put(context.Background(), key, "sk-test\n"))

	got, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", got)

	info, err := os.Stat(filepath.Join(root, "openai", "builder", "api_key@20260214T120000Z"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(credentialFileMode), info.Mode().Perm())
}

func TestStoreMissingCredential(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	key := "anthropic://default/api_key"

	_, err := store.Get(context.Background(), key)
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)

	require.NoError(t, store.Delete(context.Background(), key))
	require.NoError(t, store.Delete(context.Background(), key))
}

func TestStoreRejectsEmptyValue(t *testing.T) {
	t.Parallel()

	err := NewStore(t.TempDir()).Put(context.Background(), "openai://default/api_key", "  ")
	assert.ErrorContains(t, err, "credential value is empty")
}
