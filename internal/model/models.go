package model

import (
	"fmt"
	"time"
)

// CatalogRecord is one accepted file in the catalog.
// Fingerprint is unique across the catalog; SourcePath is indexed but may repeat.
type CatalogRecord struct {
	ID              int64     // rowid, assigned on insert
	Name            string    // Filename used at the destination
	SourcePath      string    // Absolute source location at ingest time
	DestinationPath string    // Absolute path under the organized tree ("filename" column)
	Timestamp       float64   // Organization timestamp, Unix seconds
	Fingerprint     string    // Content fingerprint ("hash" column)
	CreatedAt       time.Time // When the record was written
}

// Validate checks the fields the catalog requires before a row is written.
func (r *CatalogRecord) Validate() error {
	switch {
	case r == nil:
		return fmt.Errorf("record is nil")
	case r.Name == "":
		return fmt.Errorf("record name is empty")
	case r.SourcePath == "":
		return fmt.Errorf("record source path is empty")
	case r.DestinationPath == "":
		return fmt.Errorf("record destination path is empty")
	case r.Fingerprint == "":
		return fmt.Errorf("record fingerprint is empty")
	}
	return nil
}

// Time returns the organization timestamp as a time.Time in UTC.
func (r *CatalogRecord) Time() time.Time {
	return FromEpoch(r.Timestamp)
}

// Epoch converts t to fractional Unix seconds.
func Epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromEpoch converts fractional Unix seconds to a UTC time.
func FromEpoch(sec float64) time.Time {
	whole := int64(sec)
	frac := int64((sec - float64(whole)) * float64(time.Second))
	return time.Unix(whole, frac).UTC()
}

// Origin identifies which traversal collaborator produced a candidate.
type Origin int

const (
	OriginFolder Origin = iota
	OriginArchive
	OriginLibrary
)

func (o Origin) String() string {
	switch o {
	case OriginFolder:
		return "folder"
	case OriginArchive:
		return "archive"
	case OriginLibrary:
		return "library"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Candidate is a file offered to the ingestion engine. It is never persisted.
type Candidate struct {
	SourcePath string    // Full path to the readable file
	Name       string    // Proposed destination filename
	Fallback   time.Time // Used when no embedded capture time is found
	Origin     Origin
}

// Run is one recorded invocation of a catalog-mutating command.
type Run struct {
	ID               int64
	Operation        string
	Parameters       string
	StartedAt        time.Time
	FinishedAt       *time.Time
	Status           string // "running", "success" or "error"
	Copied           int64
	Replaced         int64
	SkippedDuplicate int64
	SkippedInferior  int64
	SkippedDerived   int64
	Failed           int64
}
