// Package fingerprint computes a fast content identity for media files.
//
// The fingerprint reads at most two chunks of a file regardless of its size,
// so two files of equal size that differ only in their middle bytes collide.
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/twmb/murmur3"

	"photocrawl/internal/crawl"
)

// ChunkSize is the number of bytes read from each end of a large file.
const ChunkSize = 64 << 10

// Version identifies the algorithm. Changing the hash, ChunkSize or the
// framing must bump it so stored catalogs are purged.
//
//	1: xxh64 over the same framing (legacy)
//	2: murmur3 128-bit
const Version = 2

// Hasher implements crawl.Fingerprinter.
type Hasher struct {
	chunk int64
}

var _ crawl.Fingerprinter = (*Hasher)(nil)

// New returns a Hasher using ChunkSize.
func New() *Hasher {
	return &Hasher{chunk: ChunkSize}
}

// NewWithChunkSize returns a Hasher reading chunk bytes from each end.
// Fingerprints from different chunk sizes are not comparable.
func NewWithChunkSize(chunk int64) *Hasher {
	if chunk <= 0 {
		chunk = ChunkSize
	}
	return &Hasher{chunk: chunk}
}

// Fingerprint returns 32 lowercase hex characters identifying the file at path.
func (h *Hasher) Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	sum, err := h.sum(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return sum, nil
}

// Sum fingerprints size bytes available from r.
func (h *Hasher) Sum(r io.ReaderAt, size int64) (string, error) {
	return h.sum(r, size)
}

func (h *Hasher) sum(r io.ReaderAt, size int64) (string, error) {
	d := murmur3.New128()
	fmt.Fprintf(d, "quickhash:size=%d:", size)

	if size <= 2*h.chunk {
		if err := copySection(d, r, 0, size); err != nil {
			return "", err
		}
	} else {
		if err := copySection(d, r, 0, h.chunk); err != nil {
			return "", err
		}
		if err := copySection(d, r, size-h.chunk, h.chunk); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}

func copySection(d hash.Hash, r io.ReaderAt, off, n int64) error {
	written, err := io.Copy(d, io.NewSectionReader(r, off, n))
	if err != nil {
		return err
	}
	if written != n {
		return fmt.Errorf("short read at offset %d: got %d of %d bytes: %w", off, written, n, io.ErrUnexpectedEOF)
	}
	return nil
}
