package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite(t *testing.T) {
	original := NewConfig("cat-abc", "/home/user/.local/share/photocrawl")
	original.ScanPath = "/Volumes/old-disk"
	original.Organize.Timezone = "Europe/Berlin"
	original.Organize.DerivedPatterns = []string{`(?i)_preview$`}
	original.Vault = VaultConfig{Type: "s3", Name: "remote", S3Bucket: "photos", S3Region: "eu-west-1"}

	var buf bytes.Buffer
	m := &Manager{}
	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.CatalogID != "cat-abc" {
		t.Errorf("CatalogID = %q, want %q", got.CatalogID, "cat-abc")
	}
	if got.ScanPath != "/Volumes/old-disk" {
		t.Errorf("ScanPath = %q", got.ScanPath)
	}
	if got.Organize.Timezone != "Europe/Berlin" {
		t.Errorf("Organize.Timezone = %q", got.Organize.Timezone)
	}
	if len(got.Organize.DerivedPatterns) != 1 {
		t.Errorf("len(DerivedPatterns) = %d, want 1", len(got.Organize.DerivedPatterns))
	}
	if got.Vault.Type != "s3" || got.Vault.S3Bucket != "photos" {
		t.Errorf("Vault = %+v", got.Vault)
	}
	if len(got.Filesystem.IgnoreFolders) != len(DefaultIgnoreFolders) {
		t.Errorf("len(IgnoreFolders) = %d, want %d", len(got.Filesystem.IgnoreFolders), len(DefaultIgnoreFolders))
	}
}

func TestManager_ReadHandWritten(t *testing.T) {
	src := `
output_path = "/photos"
database_path = "/photos/.db"
temp_path = "/tmp/pc"

[organize]
timezone = "America/New_York"

[catalog]
type = "sqlite"
lock_timeout = "250ms"
`
	cfg, err := (&Manager{}).Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	d, err := cfg.LockTimeout()
	if err != nil {
		t.Fatalf("LockTimeout() error = %v", err)
	}
	if d != 250*time.Millisecond {
		t.Errorf("LockTimeout() = %v, want 250ms", d)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "America/New_York" {
		t.Errorf("Location() = %v", loc)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("cat-1", "/data/pc")

	tests := []struct {
		name, got, want string
	}{
		{"CatalogID", cfg.CatalogID, "cat-1"},
		{"OutputPath", cfg.OutputPath, "/data/pc/library"},
		{"TempPath", cfg.TempPath, "/data/pc/tmp"},
		{"DatabasePath", cfg.DatabasePath, "/data/pc/db"},
		{"LogDir", cfg.LogDir, "/data/pc/log"},
		{"PublicKeyPath", cfg.Encryption.PublicKeyPath, "/data/pc/keys/photocrawl.pub"},
		{"StagingDir", cfg.StagingDir(), "/data/pc/tmp"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Location() = %v, %v; want UTC", loc, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"missing output", func(c *Config) { c.OutputPath = "" }, true},
		{"missing database", func(c *Config) { c.DatabasePath = "" }, true},
		{"bad timezone", func(c *Config) { c.Organize.Timezone = "Mars/Olympus" }, true},
		{"bad lock timeout", func(c *Config) { c.Catalog.LockTimeout = "soon" }, true},
		{"negative lock timeout", func(c *Config) { c.Catalog.LockTimeout = "-1s" }, true},
		{"temp staging without temp path", func(c *Config) { c.TempPath = ""; c.Staging.Type = "temp" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("c", "/data")
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "photocrawl.toml")

		if err := Init(path, NewConfig("c1", dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "photocrawl.toml")
		cfg := NewConfig("c1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads saved config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "photocrawl.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Catalog = CatalogConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		cfg.Debug = true
		if err := Save(path, cfg); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.CatalogID != "read-test" {
			t.Errorf("CatalogID = %q, want %q", got.CatalogID, "read-test")
		}
		if !got.Debug {
			t.Error("Debug = false, want true after Save")
		}
		if got.Catalog.Type != "memory" {
			t.Errorf("Catalog.Type = %q, want memory", got.Catalog.Type)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/photocrawl.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
