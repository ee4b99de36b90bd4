package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the paths used when no flags override them.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PHOTOCRAWL_CONFIG_PATH: config file location (default: ~/.config/photocrawl.toml)
//   - PHOTOCRAWL_HOME: base directory for catalog, logs and keys (default: ~/.local/share/photocrawl)
func GetDefaults() (*Defaults, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}
	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("PHOTOCRAWL_CONFIG_PATH"); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "photocrawl.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("PHOTOCRAWL_HOME"); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "photocrawl"), nil
}
