package database

import (
	"fmt"

	"photocrawl/internal/config"
	"photocrawl/internal/crawl"
)

// NewCatalogFromConfig opens the catalog described by cfg.
func NewCatalogFromConfig(cfg *config.Config, fingerprintVersion int, logger crawl.Logger) (*SQLiteCatalog, error) {
	timeout, err := cfg.LockTimeout()
	if err != nil {
		return nil, err
	}
	opts := Options{
		FingerprintVersion: fingerprintVersion,
		LockTimeout:        timeout,
		Logger:             logger,
	}

	switch cfg.Catalog.Type {
	case "sqlite", "":
		if cfg.DatabasePath == "" {
			return nil, fmt.Errorf("database_path required for sqlite catalog")
		}
		return OpenCatalog(cfg.DatabasePath, opts)
	case "memory":
		return OpenMemoryCatalog(opts)
	default:
		return nil, fmt.Errorf("unknown catalog type: %s", cfg.Catalog.Type)
	}
}
