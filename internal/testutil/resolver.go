package testutil

import (
	"path/filepath"
	"time"

	"photocrawl/internal/crawl"
)

// StubResolver returns a configured capture time per path, else the fallback.
type StubResolver struct {
	times map[string]time.Time
}

func NewStubResolver() *StubResolver {
	return &StubResolver{times: make(map[string]time.Time)}
}

// Set records the embedded capture time for path.
func (r *StubResolver) Set(path string, t time.Time) {
	r.times[filepath.Clean(path)] = t
}

func (r *StubResolver) Resolve(path string, fallback time.Time) time.Time {
	if t, ok := r.times[filepath.Clean(path)]; ok {
		return t
	}
	return fallback
}

var _ crawl.TimestampResolver = (*StubResolver)(nil)
