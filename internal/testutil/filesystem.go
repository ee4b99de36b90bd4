package testutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"photocrawl/internal/crawl"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	Atime       time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing.
// Paths are cleaned before use; parents are created implicitly.
type MockFilesystemManager struct {
	mu        sync.Mutex
	files     map[string]*MockFile
	failCopy  map[string]error // keyed by source path
	failMkdir error
	copies    int
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files:    make(map[string]*MockFile),
		failCopy: make(map[string]error),
	}
}

// AddFile adds a file with the given modification time.
func (m *MockFilesystemManager) AddFile(path string, content []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.addParents(filepath.Dir(path))
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     modTime,
		Atime:       modTime,
	}
}

// AddDirectory adds a directory and its parents.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addParents(filepath.Clean(path))
}

// Remove deletes a single path.
func (m *MockFilesystemManager) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, filepath.Clean(path))
}

// File returns the entry at path, or nil.
func (m *MockFilesystemManager) File(path string) *MockFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[filepath.Clean(path)]
}

// FailCopy makes every copy from src fail with err.
func (m *MockFilesystemManager) FailCopy(src string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCopy[filepath.Clean(src)] = err
}

// FailMkdir makes every MkdirAll fail with err.
func (m *MockFilesystemManager) FailMkdir(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failMkdir = err
}

// Copies returns the number of successful CopyFile calls.
func (m *MockFilesystemManager) Copies() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copies
}

func (m *MockFilesystemManager) addParents(dir string) {
	for {
		if f, ok := m.files[dir]; ok && f.IsDirectory {
			return
		}
		m.files[dir] = &MockFile{Permissions: 0755 | fs.ModeDir, IsDirectory: true}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func (m *MockFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("stat %s: %w", path, fs.ErrNotExist)
	}
	return newMockFileInfo(path, f), nil
}

func (m *MockFilesystemManager) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

func (m *MockFilesystemManager) MkdirAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMkdir != nil {
		return m.failMkdir
	}
	m.addParents(filepath.Clean(path))
	return nil
}

func (m *MockFilesystemManager) ReadDir(path string) ([]fs.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	dir, ok := m.files[path]
	if !ok || !dir.IsDirectory {
		return nil, fmt.Errorf("readdir %s: %w", path, fs.ErrNotExist)
	}

	var entries []fs.DirEntry
	for p, f := range m.files {
		if p != path && filepath.Dir(p) == path {
			entries = append(entries, fs.FileInfoToDirEntry(newMockFileInfo(p, f)))
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *MockFilesystemManager) CopyFile(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, dst = filepath.Clean(src), filepath.Clean(dst)
	if err, ok := m.failCopy[src]; ok {
		return err
	}
	f, ok := m.files[src]
	if !ok || f.IsDirectory {
		return fmt.Errorf("copy %s: %w", src, fs.ErrNotExist)
	}
	if _, ok := m.files[filepath.Dir(dst)]; !ok {
		return fmt.Errorf("copy to %s: %w", dst, fs.ErrNotExist)
	}
	content := append([]byte(nil), f.Content...)
	m.files[dst] = &MockFile{
		Content:     content,
		Permissions: f.Permissions,
		ModTime:     f.ModTime,
		Atime:       f.Atime,
	}
	m.copies++
	return nil
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	file    *MockFile
}

func newMockFileInfo(path string, f *MockFile) *mockFileInfo {
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(f.Content)),
		mode:    f.Permissions,
		modTime: f.ModTime,
		file:    f,
	}
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.file.IsDirectory }
func (m *mockFileInfo) Sys() any           { return m.file }

// Compile-time check
var _ crawl.FilesystemManager = (*MockFilesystemManager)(nil)
