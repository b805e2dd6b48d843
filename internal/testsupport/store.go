package testsupport

import (
	"context"
	"testing"

	"scribe/internal/config"
	"scribe/internal/registry"
)

// MustOpenStore opens a registry.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewExecution creates a pending execution for tests using the provided store.
func NewExecution(t testing.TB, store *registry.Store, bucket, key string) *registry.Execution {
	t.Helper()

	exec, err := store.NewExecution(context.Background(), bucket, key)
	if err != nil {
		t.Fatalf("store.NewExecution: %v", err)
	}
	return exec
}
