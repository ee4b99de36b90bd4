package crawl

import (
	"path/filepath"
	"time"
)

// Layout maps an organization instant to a folder in the output tree.
type Layout struct {
	Root     string
	Location *time.Location // nil means UTC
}

// Dir returns <Root>/<YYYY>/<MM>/<DD> for t in the layout's location.
func (l Layout) Dir(t time.Time) string {
	loc := l.Location
	if loc == nil {
		loc = time.UTC
	}
	return filepath.Join(l.Root, t.In(loc).Format("2006/01/02"))
}
