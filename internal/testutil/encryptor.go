package testutil

import (
	"photocrawl/internal/encryption"
)

// NewTestEncryptor returns an encryptor already set up with passphrase.
func NewTestEncryptor(passphrase string) *encryption.TestEncryptor {
	e := encryption.NewTestEncryptor()
	e.Setup(passphrase)
	return e
}
