package crawl

import "io"

// Vault stores catalog snapshots off the machine.
// Snapshots are streamed so a large catalog is never held twice in memory.
type Vault interface {
	// PutSnapshot stores the snapshot for a catalog, replacing any previous one.
	// size is the number of bytes that will be read from r.
	// version is stored alongside for staleness checks.
	PutSnapshot(catalogID string, r io.Reader, size int64, version int64) error

	// GetSnapshot writes the latest snapshot for a catalog to w.
	GetSnapshot(catalogID string, w io.Writer) error

	// SnapshotVersion returns the stored version, or 0 if none exists.
	SnapshotVersion(catalogID string) (int64, error)

	// ValidateSetup verifies that the vault is reachable and writable.
	ValidateSetup() error
}
