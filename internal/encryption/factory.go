package encryption

import (
	"fmt"

	"photocrawl/internal/config"
	"photocrawl/internal/crawl"
)

// NewEncryptorFromConfig returns nil, nil for type "none": snapshots are stored in plaintext.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (crawl.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("age encryption requires public_key_path and private_key_path")
		}
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
