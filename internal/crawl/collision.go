package crawl

import "io/fs"

// collision is the verdict for a destination that is already occupied.
type collision struct {
	newer   bool // incoming mtime strictly after existing
	larger  bool // incoming size strictly greater than existing
	replace bool
}

// decideCollision compares the incoming file against the one at the destination.
// The incoming file replaces the existing one only when it is both newer and larger.
// Equal timestamps or equal sizes keep the existing file.
func decideCollision(incoming, existing fs.FileInfo) collision {
	c := collision{
		newer:  incoming.ModTime().After(existing.ModTime()),
		larger: incoming.Size() > existing.Size(),
	}
	c.replace = c.newer && c.larger
	return c
}
