package testsupport

import (
	"testing"

	"romshelf/internal/catalog"
	"romshelf/internal/config"
)

// MustOpenStore opens a catalog store for the test config and closes it
// when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
