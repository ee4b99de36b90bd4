package database

import (
	"os"
	"path/filepath"
	"testing"

	"photocrawl/internal/config"
)

func TestNewCatalogFromConfig(t *testing.T) {
	t.Run("memory catalog", func(t *testing.T) {
		cfg := config.NewConfig("c", t.TempDir())
		cfg.Catalog.Type = "memory"

		got, err := NewCatalogFromConfig(cfg, 2, nil)
		if err != nil {
			t.Fatalf("NewCatalogFromConfig() unexpected error: %v", err)
		}
		got.Close()
	})

	t.Run("sqlite catalog", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.NewConfig("c", dir)
		cfg.DatabasePath = filepath.Join(dir, "db")

		got, err := NewCatalogFromConfig(cfg, 2, nil)
		if err != nil {
			t.Fatalf("NewCatalogFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if _, err := os.Stat(filepath.Join(dir, "db", CatalogFileName)); err != nil {
			t.Errorf("catalog file not created: %v", err)
		}
	})

	t.Run("sqlite catalog without database_path", func(t *testing.T) {
		cfg := config.NewConfig("c", t.TempDir())
		cfg.DatabasePath = ""

		got, err := NewCatalogFromConfig(cfg, 2, nil)
		if err == nil {
			t.Error("NewCatalogFromConfig() expected error for missing database_path, got nil")
		}
		if got != nil {
			t.Error("NewCatalogFromConfig() should return nil on error")
			got.Close()
		}
	})

	t.Run("unknown catalog type", func(t *testing.T) {
		cfg := config.NewConfig("c", t.TempDir())
		cfg.Catalog.Type = "postgres"

		if _, err := NewCatalogFromConfig(cfg, 2, nil); err == nil {
			t.Error("NewCatalogFromConfig() expected error for unknown type, got nil")
		}
	})

	t.Run("invalid lock timeout", func(t *testing.T) {
		cfg := config.NewConfig("c", t.TempDir())
		cfg.Catalog.LockTimeout = "forever"

		if _, err := NewCatalogFromConfig(cfg, 2, nil); err == nil {
			t.Error("NewCatalogFromConfig() expected error for bad lock_timeout, got nil")
		}
	})
}
