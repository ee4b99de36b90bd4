package testutil

import (
	"testing"

	"photocrawl/internal/database"
	"photocrawl/internal/fingerprint"
)

// NewTestCatalog creates an in-memory catalog at the current fingerprint version.
// The catalog is closed when the test completes.
func NewTestCatalog(t *testing.T) *database.SQLiteCatalog {
	t.Helper()

	c, err := database.OpenMemoryCatalog(database.Options{FingerprintVersion: fingerprint.Version})
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
	})
	return c
}
