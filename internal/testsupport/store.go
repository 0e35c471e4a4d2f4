package testsupport

import (
	"testing"

	"narrator/internal/config"
	"narrator/internal/jobstore"
)

// MustOpenStore opens the job ledger for cfg and closes it when the test
// finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobstore.Store {
	t.Helper()

	store, err := jobstore.Open(cfg)
	if err != nil {
		t.Fatalf("jobstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
