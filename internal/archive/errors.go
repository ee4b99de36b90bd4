package archive

import (
	"fmt"

	"photocrawl/internal/crawl"
)

// Error reports an archive that could not be opened or read.
// It matches crawl.ErrArchive under errors.Is.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{crawl.ErrArchive, e.Err}
}
