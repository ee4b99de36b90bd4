package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"photocrawl/internal/crawl"
)

type memorySnapshot struct {
	data    []byte
	version int64
}

// MemoryVault keeps snapshots in memory. Safe for concurrent use.
type MemoryVault struct {
	name      string
	mu        sync.RWMutex
	snapshots map[string]memorySnapshot
}

var _ crawl.Vault = (*MemoryVault)(nil)

func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{name: name, snapshots: make(map[string]memorySnapshot)}
}

func (m *MemoryVault) PutSnapshot(catalogID string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[catalogID] = memorySnapshot{data: data, version: version}
	return nil
}

func (m *MemoryVault) GetSnapshot(catalogID string, w io.Writer) error {
	m.mu.RLock()
	snap, ok := m.snapshots[catalogID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no snapshot for catalog %s", catalogID)
	}
	if _, err := io.Copy(w, bytes.NewReader(snap.data)); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (m *MemoryVault) SnapshotVersion(catalogID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[catalogID].version, nil
}

func (m *MemoryVault) ValidateSetup() error {
	return nil
}
