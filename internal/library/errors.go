package library

import (
	"fmt"

	"photocrawl/internal/crawl"
)

// Error reports a library whose database could not be read.
// It matches crawl.ErrLibrary under errors.Is.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("photo library %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{crawl.ErrLibrary, e.Err}
}
