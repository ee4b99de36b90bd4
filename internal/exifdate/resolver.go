package exifdate

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"photocrawl/internal/crawl"
)

type format int

const (
	formatUnknown format = iota
	formatGeneral
	formatTIFF
	formatQuickTime
)

// formats maps extensions to readers. HEIC, HEIF and PNG are absent: goexif
// only finds EXIF in JPEG and TIFF streams, so those resolve to the fallback.
var formats = map[string]format{
	"jpg":  formatGeneral,
	"jpeg": formatGeneral,
	"tif":  formatTIFF,
	"tiff": formatTIFF,
	"cr2":  formatTIFF,
	"nef":  formatTIFF,
	"dng":  formatTIFF,
	"arw":  formatTIFF,
	"orf":  formatTIFF,
	"rw2":  formatTIFF,
	"pef":  formatTIFF,
	"mp4":  formatQuickTime,
	"mov":  formatQuickTime,
	"m4v":  formatQuickTime,
}

func formatOf(path string) format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return formats[ext]
}

// Resolver implements crawl.TimestampResolver.
type Resolver struct {
	loc    *time.Location
	logger crawl.Logger
}

var _ crawl.TimestampResolver = (*Resolver)(nil)

// NewResolver creates a Resolver interpreting EXIF dates in loc (nil means UTC).
func NewResolver(loc *time.Location, logger crawl.Logger) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = crawl.NewNopLogger()
	}
	return &Resolver{loc: loc, logger: logger}
}

// Resolve returns the earliest embedded capture date, or fallback.
func (r *Resolver) Resolve(path string, fallback time.Time) time.Time {
	t, err := r.Date(path)
	if err != nil {
		r.logger.Debug("using fallback timestamp", "path", path, "reason", err)
		return fallback
	}
	return t
}

// Date returns the earliest embedded capture date. Every failure wraps crawl.ErrMetadata.
func (r *Resolver) Date(path string) (time.Time, error) {
	var (
		t   time.Time
		err error
	)
	switch formatOf(path) {
	case formatGeneral:
		t, err = readGeneral(path, r.loc)
	case formatTIFF:
		t, err = readTIFF(path, r.loc)
	case formatQuickTime:
		t, err = readQuickTime(path)
	default:
		return time.Time{}, fmt.Errorf("unsupported file type %q: %w", filepath.Ext(path), ErrNoDate)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", crawl.ErrMetadata, err)
	}
	return t, nil
}
