package crawl

import (
	"time"

	"photocrawl/internal/model"
)

// Fingerprinter computes the content identity used for dedup decisions.
type Fingerprinter interface {
	Fingerprint(path string) (string, error)
}

// TimestampResolver picks the organization instant for a file, preferring
// embedded capture metadata and falling back to the supplied time.
type TimestampResolver interface {
	Resolve(path string, fallback time.Time) time.Time
}

// IngestFunc receives candidates from a traversal collaborator.
// A returned error for which IsFatal is true must stop the producer.
type IngestFunc func(model.Candidate) error

// ArchiveProcessor extracts media entries from a container and offers each one.
type ArchiveProcessor interface {
	Process(archivePath string, ingest IngestFunc) error
}

// LibraryReader yields candidates from a photo-library package.
type LibraryReader interface {
	// IsLibrary reports whether dir is a library package this reader understands.
	IsLibrary(dir string) bool

	// Read offers every available asset in the library at dir.
	Read(dir string, ingest IngestFunc) error
}
