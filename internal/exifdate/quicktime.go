package exifdate

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

// quicktimeEpoch is the origin of mvhd creation times.
var quicktimeEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

// maxCreationSecs is 2100-01-01 in mvhd seconds; later values are garbage.
var maxCreationSecs = uint64(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC).Unix() - quicktimeEpoch.Unix())

// maxBoxScan bounds how many top-level boxes are inspected.
const maxBoxScan = 64

// readQuickTime returns the movie creation time from the moov/mvhd box.
// mvhd times are UTC by definition, so loc is not consulted.
func readQuickTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}

	moov, size, err := findBox(f, 0, info.Size(), "moov")
	if err != nil {
		return time.Time{}, err
	}
	mvhd, mvhdSize, err := findBox(f, moov, moov+size, "mvhd")
	if err != nil {
		return time.Time{}, err
	}
	return parseMvhd(f, mvhd, mvhdSize)
}

// findBox scans sibling boxes in [start, end) and returns the payload offset
// and payload size of the first box named kind.
func findBox(r io.ReaderAt, start, end int64, kind string) (int64, int64, error) {
	hdr := make([]byte, 16)
	off := start
	for i := 0; i < maxBoxScan && off+8 <= end; i++ {
		if _, err := r.ReadAt(hdr[:8], off); err != nil {
			return 0, 0, fmt.Errorf("reading box header: %w: %w", ErrNoDate, err)
		}
		size := int64(binary.BigEndian.Uint32(hdr[:4]))
		name := string(hdr[4:8])
		headerLen := int64(8)

		switch size {
		case 0: // box runs to the end of its parent
			size = end - off
		case 1: // 64-bit size follows
			if _, err := r.ReadAt(hdr[8:16], off+8); err != nil {
				return 0, 0, fmt.Errorf("reading box size: %w: %w", ErrNoDate, err)
			}
			size = int64(binary.BigEndian.Uint64(hdr[8:16]))
			headerLen = 16
		}
		if size < headerLen || off+size > end {
			return 0, 0, fmt.Errorf("box %q has invalid size %d: %w", name, size, ErrNoDate)
		}
		if name == kind {
			return off + headerLen, size - headerLen, nil
		}
		off += size
	}
	return 0, 0, fmt.Errorf("no %s box: %w", kind, ErrNoDate)
}

func parseMvhd(r io.ReaderAt, off, size int64) (time.Time, error) {
	buf := make([]byte, 12)
	if size < 8 {
		return time.Time{}, fmt.Errorf("mvhd too short: %w", ErrNoDate)
	}
	if _, err := r.ReadAt(buf[:1], off); err != nil {
		return time.Time{}, fmt.Errorf("reading mvhd: %w: %w", ErrNoDate, err)
	}

	var secs uint64
	switch buf[0] {
	case 0:
		if _, err := r.ReadAt(buf[:8], off); err != nil {
			return time.Time{}, fmt.Errorf("reading mvhd: %w: %w", ErrNoDate, err)
		}
		secs = uint64(binary.BigEndian.Uint32(buf[4:8]))
	case 1:
		if size < 12 {
			return time.Time{}, fmt.Errorf("mvhd too short: %w", ErrNoDate)
		}
		if _, err := r.ReadAt(buf[:12], off); err != nil {
			return time.Time{}, fmt.Errorf("reading mvhd: %w: %w", ErrNoDate, err)
		}
		secs = binary.BigEndian.Uint64(buf[4:12])
	default:
		return time.Time{}, fmt.Errorf("unknown mvhd version %d: %w", buf[0], ErrNoDate)
	}

	if secs == 0 {
		return time.Time{}, fmt.Errorf("mvhd creation time unset: %w", ErrNoDate)
	}
	if secs > maxCreationSecs {
		return time.Time{}, fmt.Errorf("mvhd creation time %d out of range: %w", secs, ErrNoDate)
	}
	return quicktimeEpoch.Add(time.Duration(secs) * time.Second), nil
}
