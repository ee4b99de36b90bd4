package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultIgnoreFolders are path substrings that are never scanned.
var DefaultIgnoreFolders = []string{
	"__MACOSX",
	"Data.noindex",
	".Trash",
	"Caches",
	"Thumbnails",
	"com.apple.AddressBook.",
	"Library/Containers",
	"Application Support",
}

// DefaultMediaExtensions are the file extensions ingested, without the dot.
var DefaultMediaExtensions = []string{
	"jpg", "jpeg", "png", "tif", "tiff", "gif", "bmp", "heic", "heif",
	"mov", "mp4", "m4v", "m4a", "m4b", "m4p",
	"cr2", "nef", "dng", "arw",
}

// DefaultArchiveExtensions are the containers opened during a scan.
var DefaultArchiveExtensions = []string{"zip"}

// Config represents the main configuration for photocrawl.
type Config struct {
	CatalogID    string `toml:"catalog_id"`
	BaseDir      string `toml:"base_dir"`
	ScanPath     string `toml:"scan_path"`
	OutputPath   string `toml:"output_path"`
	TempPath     string `toml:"temp_path"`
	DatabasePath string `toml:"database_path"`
	LogDir       string `toml:"log_dir"`
	Debug        bool   `toml:"debug"`

	Organize   OrganizeConfig   `toml:"organize"`
	Filesystem FilesystemConfig `toml:"filesystem"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Staging    StagingConfig    `toml:"staging"`
	Vault      VaultConfig      `toml:"vault"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// OrganizeConfig controls how files are placed in the output tree.
type OrganizeConfig struct {
	Timezone        string   `toml:"timezone"`         // IANA name; empty means UTC
	DerivedPatterns []string `toml:"derived_patterns"` // extra regexps for generated artifacts
}

// FilesystemConfig holds traversal settings.
type FilesystemConfig struct {
	IgnoreFolders     []string `toml:"ignore_folders"`
	MediaExtensions   []string `toml:"media_extensions"`
	ArchiveExtensions []string `toml:"archive_extensions"`
}

// CatalogConfig represents configuration for the catalog store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CatalogConfig struct {
	Type        string `toml:"type"`         // "sqlite" or "memory"
	LockTimeout string `toml:"lock_timeout"` // Go duration, e.g. "5s"
}

// StagingConfig represents configuration for the scratch area used to extract archives.
type StagingConfig struct {
	Type string `toml:"type"`          // "filesystem" or "temp"
	Dir  string `toml:"dir,omitempty"` // only used for type=filesystem; defaults to temp_path
}

// VaultConfig represents configuration for the catalog snapshot vault.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "none", "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`
	// S3Endpoint targets S3-compatible stores such as MinIO; path-style addressing is used when set.
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// EncryptionConfig holds the age key pair used for snapshot encryption.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
	Armor          bool   `toml:"armor,omitempty"` // PEM-style ASCII snapshots
}

// NewConfig creates a Config rooted at baseDir with default settings.
func NewConfig(catalogID, baseDir string) *Config {
	return &Config{
		CatalogID:    catalogID,
		BaseDir:      baseDir,
		OutputPath:   filepath.Join(baseDir, "library"),
		TempPath:     filepath.Join(baseDir, "tmp"),
		DatabasePath: filepath.Join(baseDir, "db"),
		LogDir:       filepath.Join(baseDir, "log"),
		Organize: OrganizeConfig{
			Timezone: "UTC",
		},
		Filesystem: FilesystemConfig{
			IgnoreFolders:     append([]string(nil), DefaultIgnoreFolders...),
			MediaExtensions:   append([]string(nil), DefaultMediaExtensions...),
			ArchiveExtensions: append([]string(nil), DefaultArchiveExtensions...),
		},
		Catalog: CatalogConfig{Type: "sqlite", LockTimeout: "5s"},
		Staging: StagingConfig{Type: "filesystem"},
		Vault: VaultConfig{
			Type:        "filesystem",
			Name:        "local",
			FSVaultRoot: filepath.Join(baseDir, "vault"),
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "photocrawl.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "photocrawl.key"),
		},
	}
}

// Location returns the configured organization timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Organize.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Organize.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Organize.Timezone, err)
	}
	return loc, nil
}

// LockTimeout returns the catalog busy timeout; zero when unset.
func (c *Config) LockTimeout() (time.Duration, error) {
	if c.Catalog.LockTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Catalog.LockTimeout)
	if err != nil {
		return 0, fmt.Errorf("parsing lock_timeout %q: %w", c.Catalog.LockTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("lock_timeout must not be negative: %s", c.Catalog.LockTimeout)
	}
	return d, nil
}

// StagingDir returns the directory archives are extracted under.
func (c *Config) StagingDir() string {
	if c.Staging.Dir != "" {
		return c.Staging.Dir
	}
	return c.TempPath
}

// Validate checks fields that would otherwise fail late in a run.
func (c *Config) Validate() error {
	switch {
	case c.OutputPath == "":
		return fmt.Errorf("output_path is required")
	case c.DatabasePath == "":
		return fmt.Errorf("database_path is required")
	case c.TempPath == "" && c.Staging.Type == "filesystem" && c.Staging.Dir == "":
		return fmt.Errorf("temp_path is required for filesystem staging")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.LockTimeout(); err != nil {
		return err
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// Save overwrites the config at path. Used when a command updates settings.
func Save(path string, cfg *Config) error {
	return writeToFile(path, cfg)
}
