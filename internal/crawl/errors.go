package crawl

import (
	"errors"
	"fmt"
)

// Error classes. Callers classify with errors.Is instead of matching messages.
var (
	// ErrTransientIO covers per-file failures (vanished file, permission denied).
	// The candidate is skipped and traversal continues.
	ErrTransientIO = errors.New("transient I/O error")

	// ErrIntegrity is returned by Catalog.Insert when the fingerprint is already
	// recorded. The engine treats it as a duplicate, not a failure.
	ErrIntegrity = errors.New("catalog integrity violation")

	// ErrStorage marks a catalog fault that leaves no correct way to continue.
	ErrStorage = errors.New("catalog storage error")

	// ErrArchive marks an unreadable or corrupt archive. Only that archive is abandoned.
	ErrArchive = errors.New("archive error")

	// ErrLibrary marks a photo library whose database could not be read.
	ErrLibrary = errors.New("photo library error")

	// ErrMetadata marks malformed or absent embedded dates. Never fatal.
	ErrMetadata = errors.New("metadata parse error")
)

// ItemError describes a failure local to one candidate.
type ItemError struct {
	Op    string // e.g. "fingerprint", "copy"
	Path  string
	Class error // one of the Err* classes above
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the class and the underlying cause to errors.Is/As.
func (e *ItemError) Unwrap() []error {
	return []error{e.Class, e.Err}
}

func transientError(op, path string, err error) error {
	return &ItemError{Op: op, Path: path, Class: ErrTransientIO, Err: err}
}

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStorage)
}
