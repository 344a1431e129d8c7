package testsupport

import (
	"testing"

	"wax/internal/config"
	"wax/internal/sessionindex"
)

// MustOpenIndex opens a sessionindex.Index for tests and registers cleanup.
func MustOpenIndex(t testing.TB, cfg *config.Config) *sessionindex.Index {
	t.Helper()

	idx, err := sessionindex.Open(cfg)
	if err != nil {
		t.Fatalf("open session index: %v", err)
	}
	t.Cleanup(func() {
		_ = idx.Close()
	})
	return idx
}
