package fingerprint

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestHasher_Fingerprint(t *testing.T) {
	dir := t.TempDir()
	h := New()

	t.Run("format is 32 lowercase hex chars", func(t *testing.T) {
		path := writeFile(t, dir, "a.jpg", []byte("hello"))
		fp, err := h.Fingerprint(path)
		if err != nil {
			t.Fatalf("Fingerprint() error = %v", err)
		}
		if !regexp.MustCompile(`^[0-9a-f]{32}$`).MatchString(fp) {
			t.Errorf("Fingerprint() = %q, want 32 hex chars", fp)
		}
	})

	t.Run("deterministic and name independent", func(t *testing.T) {
		data := bytes.Repeat([]byte("abc"), 1000)
		a, _ := h.Fingerprint(writeFile(t, dir, "one.jpg", data))
		b, _ := h.Fingerprint(writeFile(t, dir, "two.png", data))
		if a != b {
			t.Errorf("identical content gave %q and %q", a, b)
		}
	})

	t.Run("size is part of the identity", func(t *testing.T) {
		a, _ := h.Fingerprint(writeFile(t, dir, "short.jpg", []byte("x")))
		b, _ := h.Fingerprint(writeFile(t, dir, "long.jpg", []byte("xx")))
		if a == b {
			t.Error("files of different sizes share a fingerprint")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		fp, err := h.Fingerprint(writeFile(t, dir, "empty.jpg", nil))
		if err != nil {
			t.Fatalf("Fingerprint() error = %v", err)
		}
		if fp == "" {
			t.Error("Fingerprint() of empty file is empty")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := h.Fingerprint(filepath.Join(dir, "absent.jpg")); err == nil {
			t.Error("Fingerprint() expected error for missing file")
		}
	})
}

func TestHasher_Chunking(t *testing.T) {
	dir := t.TempDir()
	h := NewWithChunkSize(4)

	// With 4-byte chunks a 12-byte file is read at [0,4) and [8,12).
	base := []byte("AAAAmiddleZZ")
	middle := []byte("AAAAMIDDLEZZ")
	tail := []byte("AAAAmiddleZY")

	fpBase, _ := h.Fingerprint(writeFile(t, dir, "base", base))
	fpMiddle, _ := h.Fingerprint(writeFile(t, dir, "middle", middle))
	fpTail, _ := h.Fingerprint(writeFile(t, dir, "tail", tail))

	if fpBase != fpMiddle {
		t.Error("change outside the sampled chunks altered the fingerprint")
	}
	if fpBase == fpTail {
		t.Error("change in the last chunk did not alter the fingerprint")
	}

	// At exactly two chunks every byte is hashed.
	small := []byte("AAAABBBB")
	smallChanged := []byte("AAAABBBC")
	a, _ := h.Fingerprint(writeFile(t, dir, "small", small))
	b, _ := h.Fingerprint(writeFile(t, dir, "small2", smallChanged))
	if a == b {
		t.Error("file of 2*chunk bytes was not hashed in full")
	}
}

func TestHasher_SumMatchesFingerprint(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4, 5}, ChunkSize)
	path := writeFile(t, t.TempDir(), "big.mov", data)

	h := New()
	fromFile, err := h.Fingerprint(path)
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	fromReader, err := h.Sum(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Sum() error = %v", err)
	}
	if fromFile != fromReader {
		t.Errorf("Fingerprint() = %q, Sum() = %q", fromFile, fromReader)
	}
}
