package vault

import (
	"context"
	"fmt"

	"photocrawl/internal/config"
	"photocrawl/internal/crawl"
)

// NewVaultFromConfig creates a Vault based on the vault type.
// Type "none" returns nil, nil: snapshots are not pushed.
func NewVaultFromConfig(ctx context.Context, cfg config.VaultConfig) (crawl.Vault, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "memory":
		return NewMemoryVault(cfg.Name), nil
	case "s3":
		return NewS3Vault(ctx, cfg)
	case "filesystem":
		if cfg.FSVaultRoot == "" {
			return nil, fmt.Errorf("filesystem vault requires fs_vault_root to be set")
		}
		return NewFileSystemVault(cfg.Name, cfg.FSVaultRoot)
	default:
		return nil, fmt.Errorf("unknown vault type: %s", cfg.Type)
	}
}
