package exifdate

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

// tiffReadLimit bounds how much of a TIFF-family file is inspected.
// The date IFDs sit near the start of every format handled here.
const tiffReadLimit = 1 << 20

const (
	tiffTypeASCII  = 2
	ifdEntrySize   = 12
	minDateTextLen = len(Layout)
)

// readTIFF walks IFD0 and the Exif sub-IFD of a TIFF-structured file
// (TIFF, CR2, NEF, DNG and similar raw formats).
func readTIFF(path string, loc *time.Location) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, tiffReadLimit))
	if err != nil {
		return time.Time{}, fmt.Errorf("reading %s: %w", path, err)
	}
	values, err := tiffDateValues(data)
	if err != nil {
		return time.Time{}, err
	}
	return earliest(values, loc)
}

type ifdReader struct {
	data  []byte
	order binary.ByteOrder
}

func (r *ifdReader) u16(off int) (uint16, bool) {
	if off < 0 || off+2 > len(r.data) {
		return 0, false
	}
	return r.order.Uint16(r.data[off:]), true
}

func (r *ifdReader) u32(off int) (uint32, bool) {
	if off < 0 || off+4 > len(r.data) {
		return 0, false
	}
	return r.order.Uint32(r.data[off:]), true
}

// entry is one 12-byte IFD record.
type entry struct {
	offset int // position of the entry itself
	tag    uint16
	typ    uint16
	count  uint32
	value  uint32 // inline value or offset
}

// entries returns the readable entries of the IFD at off. A truncated
// table yields the entries before the cut.
func (r *ifdReader) entries(off int) []entry {
	n, ok := r.u16(off)
	if !ok {
		return nil
	}
	var out []entry
	for i := 0; i < int(n); i++ {
		at := off + 2 + i*ifdEntrySize
		if at+ifdEntrySize > len(r.data) {
			break
		}
		e := entry{offset: at}
		e.tag, _ = r.u16(at)
		e.typ, _ = r.u16(at + 2)
		e.count, _ = r.u32(at + 4)
		e.value, _ = r.u32(at + 8)
		out = append(out, e)
	}
	return out
}

// ascii returns the text of an ASCII entry, or false if it is out of bounds or too short.
func (r *ifdReader) ascii(e entry) (string, bool) {
	if e.typ != tiffTypeASCII || e.count == 0 {
		return "", false
	}
	start := e.offset + 8
	if e.count > 4 {
		start = int(e.value)
	}
	if start < 0 || start >= len(r.data) {
		return "", false
	}
	end := start + int(e.count)
	if end > len(r.data) {
		end = len(r.data)
	}
	raw := r.data[start:end]
	for len(raw) > 0 && (raw[len(raw)-1] == 0 || raw[len(raw)-1] == ' ') {
		raw = raw[:len(raw)-1]
	}
	if len(raw) < minDateTextLen {
		return "", false
	}
	return string(raw), true
}

// tiffDateValues collects DateTime from IFD0 and DateTimeOriginal and
// DateTimeDigitized from the Exif IFD.
func tiffDateValues(data []byte) ([]string, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("file too short for TIFF header: %w", ErrNoDate)
	}

	r := &ifdReader{data: data}
	switch string(data[:2]) {
	case "II":
		r.order = binary.LittleEndian
	case "MM":
		r.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a TIFF byte order mark: %w", ErrNoDate)
	}
	if magic, _ := r.u16(2); magic != 42 {
		return nil, fmt.Errorf("bad TIFF magic %d: %w", magic, ErrNoDate)
	}
	ifd0, _ := r.u32(4)
	if int(ifd0) >= len(data) {
		return nil, fmt.Errorf("IFD0 offset out of range: %w", ErrNoDate)
	}

	var values []string
	exifIFD := -1
	for _, e := range r.entries(int(ifd0)) {
		switch e.tag {
		case TagDateTime:
			if s, ok := r.ascii(e); ok {
				values = append(values, s)
			}
		case tagExifIFDPointer:
			exifIFD = int(e.value)
		}
	}

	if exifIFD >= 0 {
		for _, e := range r.entries(exifIFD) {
			switch e.tag {
			case TagDateTimeOriginal, TagDateTimeDigitized, TagDateTime:
				if s, ok := r.ascii(e); ok {
					values = append(values, s)
				}
			}
		}
	}
	return values, nil
}
