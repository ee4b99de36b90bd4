package exifdate

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// generalFields are read in a fixed order; every parseable one is a candidate.
var generalFields = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

// readGeneral decodes EXIF from JPEG-style containers with goexif.
func readGeneral(path string, loc *time.Location) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding exif: %w: %w", ErrNoDate, err)
	}

	var values []string
	for _, name := range generalFields {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		values = append(values, s)
	}
	return earliest(values, loc)
}
