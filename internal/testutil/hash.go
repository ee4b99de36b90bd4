package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"photocrawl/internal/crawl"
)

// SHA256Hex returns the SHA-256 checksum of data as a lowercase hex string.
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// StubFingerprinter fingerprints files in a MockFilesystemManager by content.
type StubFingerprinter struct {
	fsmgr *MockFilesystemManager
	fail  map[string]error
	calls int
}

func NewStubFingerprinter(fsmgr *MockFilesystemManager) *StubFingerprinter {
	return &StubFingerprinter{fsmgr: fsmgr, fail: make(map[string]error)}
}

// Fail makes fingerprinting path return err.
func (f *StubFingerprinter) Fail(path string, err error) {
	f.fail[filepath.Clean(path)] = err
}

// Calls returns how many times Fingerprint was invoked.
func (f *StubFingerprinter) Calls() int {
	return f.calls
}

func (f *StubFingerprinter) Fingerprint(path string) (string, error) {
	f.calls++
	if err, ok := f.fail[filepath.Clean(path)]; ok {
		return "", err
	}
	file := f.fsmgr.File(path)
	if file == nil {
		return "", fmt.Errorf("fingerprint %s: file not found", path)
	}
	return SHA256Hex(file.Content), nil
}

var _ crawl.Fingerprinter = (*StubFingerprinter)(nil)
