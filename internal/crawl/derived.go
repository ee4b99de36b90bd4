package crawl

import (
	"fmt"
	"regexp"
)

// FaceCropPattern matches face thumbnails exported by photo managers.
const FaceCropPattern = `(?i)_face\d+`

// DerivedFilter recognizes generated artifacts (face crops, previews) by name.
type DerivedFilter struct {
	patterns []*regexp.Regexp
}

// NewDerivedFilter compiles the face-crop pattern plus any extra patterns.
func NewDerivedFilter(extra []string) (*DerivedFilter, error) {
	f := &DerivedFilter{}
	for _, p := range append([]string{FaceCropPattern}, extra...) {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling derived pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Matches reports whether name looks like a derived artifact.
func (f *DerivedFilter) Matches(name string) bool {
	if f == nil {
		return false
	}
	for _, re := range f.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
