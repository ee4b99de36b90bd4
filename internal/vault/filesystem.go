package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"photocrawl/internal/crawl"
)

// FileSystemVault stores snapshots under a directory, typically a mounted
// backup disk:
//
//	<root>/
//	  catalogs/
//	    <catalogID>.db
//	    <catalogID>.version
type FileSystemVault struct {
	name string
	root string
	dir  string
}

var _ crawl.Vault = (*FileSystemVault)(nil)

func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	dir := filepath.Join(root, "catalogs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating vault directory: %w", err)
	}
	return &FileSystemVault{name: name, root: root, dir: dir}, nil
}

func (v *FileSystemVault) snapshotPath(catalogID string) string {
	return filepath.Join(v.dir, catalogID+".db")
}

func (v *FileSystemVault) versionPath(catalogID string) string {
	return filepath.Join(v.dir, catalogID+".version")
}

// PutSnapshot writes the snapshot first and the version file last, so a
// reader never sees a version newer than the data.
func (v *FileSystemVault) PutSnapshot(catalogID string, r io.Reader, size int64, version int64) error {
	if err := writeAtomic(v.snapshotPath(catalogID), r, size); err != nil {
		return err
	}
	data := strconv.FormatInt(version, 10)
	return writeAtomic(v.versionPath(catalogID), strings.NewReader(data), int64(len(data)))
}

func (v *FileSystemVault) GetSnapshot(catalogID string, w io.Writer) error {
	f, err := os.Open(v.snapshotPath(catalogID))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no snapshot for catalog %s", catalogID)
		}
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	return nil
}

// SnapshotVersion returns 0 if no version file exists.
func (v *FileSystemVault) SnapshotVersion(catalogID string) (int64, error) {
	data, err := os.ReadFile(v.versionPath(catalogID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}
	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup checks that the vault directory exists and accepts writes.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.dir)
	if err != nil {
		return fmt.Errorf("vault not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", v.dir)
	}
	f, err := os.CreateTemp(v.dir, ".writable-*")
	if err != nil {
		return fmt.Errorf("vault not writable: %w", err)
	}
	f.Close()
	return os.Remove(f.Name())
}

// writeAtomic writes through a temp file in the destination directory and renames it into place.
func writeAtomic(destPath string, r io.Reader, expectedSize int64) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("writing data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	committed = true
	return nil
}
