package crawl

import "photocrawl/internal/model"

// Catalog is the durable record of accepted files.
// It is the single writer of CatalogRecords; the Engine is its only mutating caller.
type Catalog interface {
	// FindBySourcePath returns a record ingested from exactly this path, or nil.
	// This is the cheap first dedup check.
	FindBySourcePath(path string) (*model.CatalogRecord, error)

	// FindByFingerprint returns the record holding this content fingerprint, or nil.
	// This is the authoritative dedup check.
	FindByFingerprint(fingerprint string) (*model.CatalogRecord, error)

	// Insert appends a record. A fingerprint that is already present yields an
	// error wrapping ErrIntegrity; any other failure wraps ErrStorage.
	Insert(record *model.CatalogRecord) error

	// Relink points an existing record at a new source and destination.
	// Used when the recorded destination vanished and the content was copied again.
	Relink(fingerprint, sourcePath, destinationPath string) error

	// Count returns the number of records.
	Count() (int64, error)
}
