package crawl

import (
	"io/fs"
	"testing"
	"time"
)

type fakeInfo struct {
	size  int64
	mtime time.Time
}

func (f fakeInfo) Name() string       { return "f" }
func (f fakeInfo) Size() int64        { return f.size }
func (f fakeInfo) Mode() fs.FileMode  { return 0o644 }
func (f fakeInfo) ModTime() time.Time { return f.mtime }
func (f fakeInfo) IsDir() bool        { return false }
func (f fakeInfo) Sys() any           { return nil }

func TestDecideCollision(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		incoming fakeInfo
		existing fakeInfo
		want     collision
	}{
		{"newer and larger", fakeInfo{20, t0.Add(time.Second)}, fakeInfo{10, t0}, collision{newer: true, larger: true, replace: true}},
		{"newer only", fakeInfo{10, t0.Add(time.Second)}, fakeInfo{20, t0}, collision{newer: true}},
		{"larger only", fakeInfo{20, t0}, fakeInfo{10, t0.Add(time.Second)}, collision{larger: true}},
		{"identical", fakeInfo{10, t0}, fakeInfo{10, t0}, collision{}},
		{"older and smaller", fakeInfo{5, t0.Add(-time.Hour)}, fakeInfo{10, t0}, collision{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decideCollision(tt.incoming, tt.existing); got != tt.want {
				t.Errorf("decideCollision() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
