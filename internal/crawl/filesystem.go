package crawl

import "io/fs"

// FilesystemManager abstracts the filesystem operations the engine and crawler need.
type FilesystemManager interface {
	// Stat returns fresh file info for a path.
	Stat(path string) (fs.FileInfo, error)

	// Exists reports whether a path currently exists.
	Exists(path string) bool

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// ReadDir lists a directory, sorted by name.
	ReadDir(path string) ([]fs.DirEntry, error)

	// CopyFile copies src to dst, preserving access and modification times.
	// dst is replaced atomically; a failed copy leaves dst untouched.
	CopyFile(src, dst string) error
}

// MediaClassifier decides which files are candidates and which are containers.
type MediaClassifier interface {
	IsMedia(name string) bool
	IsArchive(name string) bool
}

// PathFilter reports whether a path lies in a folder that should never be scanned.
type PathFilter interface {
	Ignored(path string) bool
}
