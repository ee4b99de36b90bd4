package crawl

import (
	"sync"

	"photocrawl/internal/model"
)

// Counts is a point-in-time copy of run telemetry.
type Counts struct {
	FolderImages  int64
	ArchiveImages int64
	LibraryImages int64

	Copied           int64
	Replaced         int64
	SkippedDuplicate int64
	SkippedInferior  int64
	SkippedDerived   int64
	Failed           int64

	NonMedia        int64
	Unavailable     int64 // library assets whose original is not on disk
	ArchiveErrors   int64
	LibraryErrors   int64
	TraversalErrors int64
}

// Scanned returns the number of candidates offered to the engine.
func (c Counts) Scanned() int64 {
	return c.FolderImages + c.ArchiveImages + c.LibraryImages
}

// Skipped returns the number of candidates that were not copied.
func (c Counts) Skipped() int64 {
	return c.SkippedDuplicate + c.SkippedInferior + c.SkippedDerived
}

// Stats accumulates run telemetry. Nothing reads it for control flow.
// It is safe for concurrent use.
type Stats struct {
	mu sync.Mutex
	c  Counts
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{}
}

// Record counts one engine decision for a candidate from origin.
func (s *Stats) Record(origin model.Origin, outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch origin {
	case model.OriginFolder:
		s.c.FolderImages++
	case model.OriginArchive:
		s.c.ArchiveImages++
	case model.OriginLibrary:
		s.c.LibraryImages++
	}

	switch outcome {
	case OutcomeCopied:
		s.c.Copied++
	case OutcomeReplaced:
		s.c.Replaced++
	case OutcomeSkippedDuplicate:
		s.c.SkippedDuplicate++
	case OutcomeSkippedInferior:
		s.c.SkippedInferior++
	case OutcomeSkippedDerived:
		s.c.SkippedDerived++
	case OutcomeFailed:
		s.c.Failed++
	}
}

func (s *Stats) add(field *int64) {
	s.mu.Lock()
	*field++
	s.mu.Unlock()
}

func (s *Stats) AddNonMedia()       { s.add(&s.c.NonMedia) }
func (s *Stats) AddUnavailable()    { s.add(&s.c.Unavailable) }
func (s *Stats) AddArchiveError()   { s.add(&s.c.ArchiveErrors) }
func (s *Stats) AddLibraryError()   { s.add(&s.c.LibraryErrors) }
func (s *Stats) AddTraversalError() { s.add(&s.c.TraversalErrors) }

// Snapshot returns a copy of the counters.
func (s *Stats) Snapshot() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c
}
