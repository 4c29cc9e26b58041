package chain

import (
	"context"
	"errors"
	"fmt"

	envstore "github.com/bnema/agentdeck/internal/adapters/credentials/env"
	filestore "github.com/bnema/agentdeck/internal/adapters/credentials/file"
	"github.com/bnema/agentdeck/internal/ports"
)

// Store writes to primary and reads from primary, then fallback.
type Store struct {
	primary  ports.CredentialStore
	fallback ports.CredentialStore
}

var _ ports.CredentialStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary credential store is nil")
	errNilFallbackStore = errors.New("fallback credential store is nil")
)

func NewStore(primary ports.CredentialStore, fallback ports.CredentialStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.CredentialStore, fallback ports.CredentialStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

// NewFileWithEnvFallback stores credentials as files under root and resolves
// provider defaults from the environment when no file exists.
func NewFileWithEnvFallback(root string) (*Store, error) {
	return NewStoreChecked(filestore.NewStore(root), envstore.NewStore())
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	return s.primary.Put(ctx, key, value)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	return "", fmt.Errorf("primary store get failed: %w; fallback store get failed: %w", err, fallbackErr)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.primary.Delete(ctx, key)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
