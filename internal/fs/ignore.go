package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is read from the scan root for extra ignore patterns.
const IgnoreFileName = ".photocrawlignore"

// ignorePattern is a parsed ignore pattern with its matching strategy.
type ignorePattern struct {
	pattern   string
	glob      bool // false = substring of the slash-separated path
	matchPath bool // for globs: true = match the whole path; false = any single component
}

// IgnoreMatcher implements crawl.PathFilter.
//
// Plain patterns such as "Caches" or "Library/Containers" match when they
// occur anywhere in the path. Patterns with glob metacharacters are matched
// with filepath.Match: against every path component when they contain no
// '/', or against the path tail with the same number of components otherwise.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var patterns []ignorePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		patterns = append(patterns, ignorePattern{
			pattern:   raw,
			glob:      strings.ContainsAny(raw, "*?["),
			matchPath: strings.Contains(raw, "/"),
		})
	}
	return &IgnoreMatcher{patterns: patterns}
}

// Ignored reports whether path lies in, or is, an ignored location.
func (m *IgnoreMatcher) Ignored(path string) bool {
	if m == nil || len(m.patterns) == 0 || path == "" {
		return false
	}

	normalized := filepath.ToSlash(path)
	parts := strings.Split(strings.Trim(normalized, "/"), "/")

	for _, p := range m.patterns {
		if !p.glob {
			if strings.Contains(normalized, p.pattern) {
				return true
			}
			continue
		}
		if p.matchPath {
			n := strings.Count(strings.Trim(p.pattern, "/"), "/") + 1
			if n > len(parts) {
				continue
			}
			tail := strings.Join(parts[len(parts)-n:], "/")
			if ok, err := filepath.Match(strings.Trim(p.pattern, "/"), tail); err == nil && ok {
				return true
			}
			continue
		}
		for _, part := range parts {
			// Bad patterns never match.
			if ok, err := filepath.Match(p.pattern, part); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// ParseIgnoreFile reads an ignore file and returns the raw pattern strings.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
