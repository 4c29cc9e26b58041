package env

import (
	"context"
	"testing"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, ok := vars[name]
		return value, ok
	}
}

func TestStoreGet(t *testing.T) {
	t.Parallel()

	store := NewStoreWithLookup(lookupFrom(map[string]string{
		"OPENAI_API_KEY":    " sk-openai ",
		"GOOGLE_API_KEY":    "google-key",
		"ANTHROPIC_API_KEY": "",
	}))

	testCases := []struct {
		name    string
		key     string
		want    string
		missing bool
	}{
		{name: "provider default", key: "openai://default/api_key", want: "sk-openai"},
		{name: "second variable", key: "gemini://default/api_key", want: "google-key"},
		{name: "empty variable", key: "anthropic://default/api_key", missing: true},
		{name: "agent credential", key: "openai://builder/api_key@20260214T120000Z", missing: true},
		{name: "cli provider", key: "codex-cli://default/api_key", missing: true},
		{name: "not a reference", key: "OPENAI_API_KEY", missing: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.Get(context.Background(), tc.key)
			if tc.missing {
				require.ErrorIs(t, err, domain.ErrCredentialNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStoreIsReadOnly(t *testing.T) {
	t.Parallel()

	store := NewStoreWithLookup(lookupFrom(nil))
	require.ErrorIs(t, store.Put(context.Background(), "openai://default/api_key", "x"), ErrReadOnly)
	require.ErrorIs(t, store.Delete(context.Background(), "openai://default/api_key"), ErrReadOnly)
}

func TestNewStoreReadsProcessEnvironment(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	got, err := NewStore().Get(context.Background(), "openrouter://default/api_key")
	require.NoError(t, err)
	assert.Equal(t, "or-key", got)
}
