// Package exifdate resolves the capture time of a media file from its embedded metadata.
package exifdate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"photocrawl/internal/crawl"
)

// Layout is the EXIF date-time format.
const Layout = "2006:01:02 15:04:05"

// EXIF tag ids for the date fields.
const (
	TagDateTime          = 0x0132 // 306
	TagDateTimeOriginal  = 0x9003 // 36867
	TagDateTimeDigitized = 0x9004 // 36868
	tagExifIFDPointer    = 0x8769 // 34665
)

var (
	// ErrBadDate means one date field did not hold a usable value.
	ErrBadDate = fmt.Errorf("malformed date: %w", crawl.ErrMetadata)

	// ErrNoDate means the file carries no usable capture date.
	ErrNoDate = fmt.Errorf("no embedded date: %w", crawl.ErrMetadata)
)

// ParseDate parses an EXIF date string in loc. Values are trimmed of NULs
// and spaces; anything else that deviates from Layout is rejected,
// including the all-zero placeholder some cameras write.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(strings.Trim(s, "\x00"))
	if len(s) < len(Layout) {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrBadDate)
	}
	t, err := time.ParseInLocation(Layout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", s, errors.Join(ErrBadDate, err))
	}
	return t, nil
}

// earliest returns the minimum of the parseable values, or ErrNoDate.
func earliest(values []string, loc *time.Location) (time.Time, error) {
	var best time.Time
	for _, v := range values {
		t, err := ParseDate(v, loc)
		if err != nil {
			continue
		}
		if best.IsZero() || t.Before(best) {
			best = t
		}
	}
	if best.IsZero() {
		return time.Time{}, ErrNoDate
	}
	return best, nil
}
