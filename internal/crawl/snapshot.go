package crawl

import (
	"bytes"
	"fmt"
	"io"
)

// Snapshotter moves catalog snapshots to and from a Vault,
// encrypting them when an Encryptor is configured.
type Snapshotter struct {
	vault     Vault
	encryptor Encryptor // nil means plaintext
	logger    Logger
}

func NewSnapshotter(vault Vault, encryptor Encryptor, logger Logger) *Snapshotter {
	return &Snapshotter{vault: vault, encryptor: encryptor, logger: logger}
}

// Encrypted reports whether snapshots pass through the encryptor.
func (s *Snapshotter) Encrypted() bool {
	return s.encryptor != nil
}

// Push uploads the snapshot read from r under catalogID.
func (s *Snapshotter) Push(catalogID string, r io.Reader, version int64) error {
	var buf bytes.Buffer
	if s.encryptor != nil {
		if err := s.encryptor.Encrypt(r, &buf); err != nil {
			return fmt.Errorf("encrypting snapshot: %w", err)
		}
	} else if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	size := int64(buf.Len())
	if err := s.vault.PutSnapshot(catalogID, &buf, size, version); err != nil {
		return fmt.Errorf("uploading snapshot: %w", err)
	}
	s.logger.Info("catalog snapshot uploaded", "catalog", catalogID, "version", version, "bytes", size)
	return nil
}

// Pull writes the latest snapshot for catalogID to w.
// passphrase is only consulted when snapshots are encrypted.
func (s *Snapshotter) Pull(catalogID string, w io.Writer, passphrase string) error {
	version, err := s.vault.SnapshotVersion(catalogID)
	if err != nil {
		return fmt.Errorf("checking snapshot version: %w", err)
	}
	if version == 0 {
		return fmt.Errorf("no snapshot stored for catalog %s", catalogID)
	}

	if s.encryptor == nil {
		if err := s.vault.GetSnapshot(catalogID, w); err != nil {
			return fmt.Errorf("downloading snapshot: %w", err)
		}
		return nil
	}

	dc, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}
	var buf bytes.Buffer
	if err := s.vault.GetSnapshot(catalogID, &buf); err != nil {
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	if err := dc.Decrypt(&buf, w); err != nil {
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	s.logger.Info("catalog snapshot restored", "catalog", catalogID, "version", version)
	return nil
}

// Version returns the stored snapshot version for catalogID.
func (s *Snapshotter) Version(catalogID string) (int64, error) {
	return s.vault.SnapshotVersion(catalogID)
}
