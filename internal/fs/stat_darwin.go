//go:build darwin

package fs

import (
	"io/fs"
	"syscall"
	"time"
)

// AccessTime returns the last access time recorded in info, or its ModTime when unavailable.
func AccessTime(info fs.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Atimespec.Sec, stat.Atimespec.Nsec)
}
