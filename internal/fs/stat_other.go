//go:build !linux && !darwin

package fs

import (
	"io/fs"
	"time"
)

// AccessTime falls back to ModTime where the platform stat is not decoded.
func AccessTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
