package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"photocrawl/internal/crawl"
)

// tempPrefix marks in-flight copies. A crash leaves at most one such file per destination folder.
const tempPrefix = ".photocrawl-"

// OSFilesystemManager is the real filesystem implementation of crawl.FilesystemManager.
type OSFilesystemManager struct{}

// NewOSFilesystemManager creates a filesystem manager that operates on the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{}
}

// Stat returns fresh file info for a path. Symlinks are followed.
func (m *OSFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Exists reports whether path exists. Any stat error counts as absent.
func (m *OSFilesystemManager) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (m *OSFilesystemManager) MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

// ReadDir lists a directory sorted by name.
func (m *OSFilesystemManager) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

// CopyFile copies src to dst through a temp file in dst's folder, then
// renames it into place. Access and modification times follow src.
func (m *OSFilesystemManager) CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("source is not a regular file: %s", src)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return fmt.Errorf("copying content: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, info.Mode().Perm()|0o200); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Chtimes(tmpPath, AccessTime(info), info.ModTime()); err != nil {
		return fmt.Errorf("setting times: %w", err)
	}
	if err = os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

var _ crawl.FilesystemManager = (*OSFilesystemManager)(nil)
