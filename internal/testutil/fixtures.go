package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
)

// TIFFDates are the date fields written by BuildTIFF. Empty fields are omitted.
type TIFFDates struct {
	DateTime  string // IFD0, tag 306
	Original  string // Exif IFD, tag 36867
	Digitized string // Exif IFD, tag 36868
}

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32
	text  string
}

// BuildTIFF returns a minimal TIFF stream holding the given dates.
func BuildTIFF(littleEndian bool, d TIFFDates) []byte {
	var order binary.ByteOrder = binary.BigEndian
	mark := "MM"
	if littleEndian {
		order, mark = binary.LittleEndian, "II"
	}

	var ifd0, exif []tiffEntry
	if d.DateTime != "" {
		ifd0 = append(ifd0, tiffEntry{tag: 306, typ: 2, text: d.DateTime})
	}
	ifd0 = append(ifd0, tiffEntry{tag: 34665, typ: 4, count: 1})
	if d.Original != "" {
		exif = append(exif, tiffEntry{tag: 36867, typ: 2, text: d.Original})
	}
	if d.Digitized != "" {
		exif = append(exif, tiffEntry{tag: 36868, typ: 2, text: d.Digitized})
	}

	ifd0Off := 8
	exifOff := ifd0Off + 2 + 12*len(ifd0) + 4
	dataOff := exifOff + 2 + 12*len(exif) + 4

	var data []byte
	place := func(entries []tiffEntry) {
		for i := range entries {
			e := &entries[i]
			switch {
			case e.typ == 2:
				e.count = uint32(len(e.text) + 1)
				e.value = uint32(dataOff + len(data))
				data = append(data, e.text...)
				data = append(data, 0)
			case e.tag == 34665:
				e.value = uint32(exifOff)
			}
		}
	}
	place(ifd0)
	place(exif)

	buf := make([]byte, dataOff)
	copy(buf, mark)
	order.PutUint16(buf[2:], 42)
	order.PutUint32(buf[4:], uint32(ifd0Off))

	writeIFD := func(off int, entries []tiffEntry) {
		order.PutUint16(buf[off:], uint16(len(entries)))
		for i, e := range entries {
			at := off + 2 + i*12
			order.PutUint16(buf[at:], e.tag)
			order.PutUint16(buf[at+2:], e.typ)
			order.PutUint32(buf[at+4:], e.count)
			order.PutUint32(buf[at+8:], e.value)
		}
		// next-IFD offset stays zero
	}
	writeIFD(ifd0Off, ifd0)
	writeIFD(exifOff, exif)

	return append(buf, data...)
}

// BuildJPEG wraps a TIFF stream in a JPEG APP1 Exif segment.
func BuildJPEG(tiff []byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	binary.Write(&b, binary.BigEndian, uint16(2+6+len(tiff)))
	b.WriteString("Exif\x00\x00")
	b.Write(tiff)
	b.Write([]byte{0xFF, 0xD9})
	return b.Bytes()
}

// BuildMP4 returns an ftyp box followed by a moov box whose mvhd carries created.
func BuildMP4(created time.Time) []byte {
	secs := uint32(created.Sub(time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)) / time.Second)

	mvhd := make([]byte, 8+20)
	binary.BigEndian.PutUint32(mvhd[0:], uint32(len(mvhd)))
	copy(mvhd[4:], "mvhd")
	// version 0, flags 0
	binary.BigEndian.PutUint32(mvhd[12:], secs) // creation
	binary.BigEndian.PutUint32(mvhd[16:], secs) // modification
	binary.BigEndian.PutUint32(mvhd[20:], 600)  // timescale

	var b bytes.Buffer
	binary.Write(&b, binary.BigEndian, uint32(16))
	b.WriteString("ftypisom")
	binary.Write(&b, binary.BigEndian, uint32(0x200))
	binary.Write(&b, binary.BigEndian, uint32(8+len(mvhd)))
	b.WriteString("moov")
	b.Write(mvhd)
	return b.Bytes()
}

// BuildMP4V1 returns an MP4 whose version 1 mvhd carries raw 64-bit creation seconds.
func BuildMP4V1(secs uint64) []byte {
	mvhd := make([]byte, 8+32)
	binary.BigEndian.PutUint32(mvhd[0:], uint32(len(mvhd)))
	copy(mvhd[4:], "mvhd")
	mvhd[8] = 1
	binary.BigEndian.PutUint64(mvhd[12:], secs)
	binary.BigEndian.PutUint64(mvhd[20:], secs)
	binary.BigEndian.PutUint32(mvhd[28:], 600)

	var b bytes.Buffer
	binary.Write(&b, binary.BigEndian, uint32(8+len(mvhd)))
	b.WriteString("moov")
	b.Write(mvhd)
	return b.Bytes()
}

// ZipEntry describes one member written by WriteZip.
type ZipEntry struct {
	Name     string
	Body     []byte
	Modified time.Time
}

// WriteZip creates an archive at path with the given entries.
func WriteZip(t *testing.T, path string, entries []ZipEntry) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating archive dir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: e.Modified,
		})
		if err != nil {
			t.Fatalf("adding %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Body); err != nil {
			t.Fatalf("writing %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("finishing archive: %v", err)
	}
}

// WriteFile writes data to path, creating parents, and sets its mtime.
func WriteFile(t *testing.T, path string, data []byte, mtime time.Time) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("setting times on %s: %v", path, err)
		}
	}
}
