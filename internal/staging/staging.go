// Package staging manages scratch directories used while extracting archives.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"photocrawl/internal/crawl"
)

// Area owns a root directory and hands out one scratch directory per archive.
// Safe for concurrent use.
type Area struct {
	root  string
	idgen crawl.IDGenerator

	mu     sync.Mutex
	active map[string]bool
}

// NewArea creates the root directory if needed.
func NewArea(root string, idgen crawl.IDGenerator) (*Area, error) {
	if root == "" {
		return nil, fmt.Errorf("staging root is empty")
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving staging root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging root: %w", err)
	}
	if idgen == nil {
		idgen = crawl.UUIDGenerator{}
	}
	return &Area{root: root, idgen: idgen, active: make(map[string]bool)}, nil
}

// Root returns the absolute root directory.
func (a *Area) Root() string {
	return a.root
}

var unsafeLabel = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// scratchName matches directories created by Acquire with a UUID id.
var scratchName = regexp.MustCompile(`^[A-Za-z0-9._-]+-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// StaleAfter is how long a scratch directory must sit untouched before Sweep removes it.
// A directory being extracted into changes mtime with every entry.
const StaleAfter = time.Hour

// Acquire creates <root>/<label>-<id>. label is usually the archive's base name.
func (a *Area) Acquire(label string) (*Scratch, error) {
	label = strings.TrimSuffix(filepath.Base(label), filepath.Ext(label))
	label = strings.Trim(unsafeLabel.ReplaceAllString(label, "_"), "._")
	if label == "" {
		label = "archive"
	}

	dir := filepath.Join(a.root, label+"-"+a.idgen.New())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}

	a.mu.Lock()
	a.active[dir] = true
	a.mu.Unlock()
	return &Scratch{area: a, path: dir}, nil
}

// Residue lists scratch directories left under the root that no live Scratch
// owns and that have not been modified for olderThan. Entries not named like
// Acquire's output are never reported.
func (a *Area) Residue(olderThan time.Duration) ([]string, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, fmt.Errorf("listing staging root: %w", err)
	}
	cutoff := time.Now().Add(-olderThan)

	a.mu.Lock()
	defer a.mu.Unlock()

	var out []string
	for _, e := range entries {
		if !e.IsDir() || !scratchName.MatchString(e.Name()) {
			continue
		}
		p := filepath.Join(a.root, e.Name())
		if a.active[p] {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Sweep removes residue left by interrupted runs and returns how many directories it removed.
func (a *Area) Sweep(olderThan time.Duration) (int, error) {
	residue, err := a.Residue(olderThan)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, p := range residue {
		if err := os.RemoveAll(p); err != nil {
			return removed, fmt.Errorf("removing %s: %w", p, err)
		}
		removed++
	}
	return removed, nil
}

func (a *Area) release(dir string) error {
	a.mu.Lock()
	delete(a.active, dir)
	a.mu.Unlock()

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing scratch directory: %w", err)
	}
	pruneEmptyParents(filepath.Dir(dir), a.root)
	return nil
}

// pruneEmptyParents removes empty directories from dir upwards, stopping before root.
func pruneEmptyParents(dir, root string) {
	for dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Scratch is one extraction directory. Release it on every exit path.
type Scratch struct {
	area *Area
	path string

	once sync.Once
	err  error
}

// Path returns the absolute scratch directory.
func (s *Scratch) Path() string {
	return s.path
}

// Join resolves an archive member name inside the scratch directory.
// Names that would escape it (absolute, or climbing with "..") are rejected.
func (s *Scratch) Join(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("absolute member name %q", name)
	}
	full := filepath.Join(s.path, clean)
	if !strings.HasPrefix(full, s.path+string(filepath.Separator)) {
		return "", fmt.Errorf("member name %q escapes scratch directory", name)
	}
	return full, nil
}

// Release deletes the directory and everything in it. Safe to call more than once.
func (s *Scratch) Release() error {
	s.once.Do(func() {
		s.err = s.area.release(s.path)
	})
	return s.err
}

// RemoveFile deletes one extracted member and any folders it leaves empty.
func (s *Scratch) RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	pruneEmptyParents(filepath.Dir(path), s.path)
	return nil
}
