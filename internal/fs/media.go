package fs

import (
	"path/filepath"
	"strings"

	"photocrawl/internal/crawl"
)

// ExtensionClassifier implements crawl.MediaClassifier by file extension.
type ExtensionClassifier struct {
	media    map[string]bool
	archives map[string]bool
}

var _ crawl.MediaClassifier = (*ExtensionClassifier)(nil)

// NewExtensionClassifier builds a classifier. Extensions are matched
// case-insensitively, with or without a leading dot.
func NewExtensionClassifier(media, archives []string) *ExtensionClassifier {
	return &ExtensionClassifier{media: extSet(media), archives: extSet(archives)}
}

func extSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))] = true
	}
	return set
}

func ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func (c *ExtensionClassifier) IsMedia(name string) bool {
	return c.media[ext(name)]
}

func (c *ExtensionClassifier) IsArchive(name string) bool {
	return c.archives[ext(name)]
}
