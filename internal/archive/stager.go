// Package archive extracts media from ZIP containers into a scratch area
// and offers each entry to the ingestion engine.
package archive

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"photocrawl/internal/crawl"
	"photocrawl/internal/model"
	"photocrawl/internal/staging"
)

// Stager processes one archive at a time. Each archive gets its own scratch
// directory, removed before Process returns.
type Stager struct {
	area   *staging.Area
	filter crawl.PathFilter
	media  crawl.MediaClassifier
	loc    *time.Location
	logger crawl.Logger
	stats  *crawl.Stats
}

var _ crawl.ArchiveProcessor = (*Stager)(nil)

// NewStager creates a Stager. Entry timestamps are read as wall-clock time in loc.
func NewStager(area *staging.Area, filter crawl.PathFilter, media crawl.MediaClassifier, loc *time.Location, logger crawl.Logger, stats *crawl.Stats) *Stager {
	if loc == nil {
		loc = time.UTC
	}
	if stats == nil {
		stats = crawl.NewStats()
	}
	return &Stager{
		area:   area,
		filter: filter,
		media:  media,
		loc:    loc,
		logger: logger,
		stats:  stats,
	}
}

// Process extracts every media entry in archivePath and hands it to ingest.
// Entry failures are logged and counted. An unreadable archive yields *Error;
// a fatal error from ingest stops the archive and is returned as is.
func (s *Stager) Process(archivePath string, ingest crawl.IngestFunc) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return &Error{Path: archivePath, Err: err}
	}
	defer zr.Close()

	scratch, err := s.area.Acquire(archivePath)
	if err != nil {
		return &Error{Path: archivePath, Err: fmt.Errorf("acquiring scratch directory: %w", err)}
	}
	defer func() {
		if err := scratch.Release(); err != nil {
			s.logger.Warn("failed to remove scratch directory", "path", scratch.Path(), "error", err)
		}
	}()

	offered := 0
	for _, f := range zr.File {
		if !s.wanted(f) {
			continue
		}

		if err := s.stage(scratch, f, ingest); err != nil {
			if crawl.IsFatal(err) {
				return err
			}
			s.stats.Record(model.OriginArchive, crawl.OutcomeFailed)
			s.logger.Warn("archive entry failed", "archive", archivePath, "entry", f.Name, "error", err)
			continue
		}
		offered++
	}

	s.logger.Debug("archive processed", "archive", archivePath, "entries", len(zr.File), "offered", offered)
	return nil
}

func (s *Stager) wanted(f *zip.File) bool {
	if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
		return false
	}
	if s.filter != nil && s.filter.Ignored(f.Name) {
		s.logger.Debug("ignoring archive entry", "entry", f.Name)
		return false
	}
	if !s.media.IsMedia(path.Base(f.Name)) {
		s.stats.AddNonMedia()
		return false
	}
	return true
}

// stage extracts f, offers it and removes the extracted copy.
func (s *Stager) stage(scratch *staging.Scratch, f *zip.File, ingest crawl.IngestFunc) error {
	dest, err := scratch.Join(f.Name)
	if err != nil {
		return err
	}
	defer scratch.RemoveFile(dest)

	modified := s.wallClock(f.Modified)
	if err := extract(f, dest, modified); err != nil {
		return fmt.Errorf("extracting: %w", err)
	}

	return ingest(model.Candidate{
		SourcePath: dest,
		Name:       path.Base(f.Name),
		Fallback:   modified,
		Origin:     model.OriginArchive,
	})
}

// wallClock keeps the date and clock fields of t and places them in the configured location.
// ZIP entries store local time without a zone.
func (s *Stager) wallClock(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, s.loc)
}

func extract(f *zip.File, dest string, modified time.Time) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if !modified.IsZero() {
		if err := os.Chtimes(dest, modified, modified); err != nil {
			return err
		}
	}
	return nil
}
