package encryption

import (
	"bytes"
	"fmt"
	"io"

	"photocrawl/internal/crawl"
)

// testMagic marks payloads written by TestEncryptor.
var testMagic = []byte("PCTEST\x00\x01")

// TestEncryptor frames data with a marker instead of encrypting it.
// Unlock enforces the passphrase given to Setup so restore paths can be
// exercised without key generation.
type TestEncryptor struct {
	passphrase string
	configured bool
}

var _ crawl.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testMagic); err != nil {
		return fmt.Errorf("writing marker: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (crawl.DecryptionContext, error) {
	if e.configured && passphrase != e.passphrase {
		return nil, fmt.Errorf("wrong passphrase")
	}
	return TestDecryptionContext{}, nil
}

// IsConfigured is true once Setup has run.
func (e *TestEncryptor) IsConfigured() bool {
	return e.configured
}

// TestDecryptionContext removes the TestEncryptor marker.
type TestDecryptionContext struct{}

func (TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	head := make([]byte, len(testMagic))
	if _, err := io.ReadFull(r, head); err != nil {
		return fmt.Errorf("reading marker: %w", err)
	}
	if !bytes.Equal(head, testMagic) {
		return fmt.Errorf("payload was not written by TestEncryptor")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
