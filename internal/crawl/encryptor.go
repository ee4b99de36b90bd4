package crawl

import "io"

// Encryptor protects catalog snapshots at rest.
// Encryption needs only the public key; decryption needs the passphrase.
type Encryptor interface {
	// Setup generates a key pair, storing the private key encrypted with passphrase.
	Setup(passphrase string) error

	// Encrypt writes the ciphertext of r to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key. A wrong passphrase is an error.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured returns true if both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for one session.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
