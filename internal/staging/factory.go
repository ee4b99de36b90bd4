package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"photocrawl/internal/config"
	"photocrawl/internal/crawl"
)

// ScratchDirName is the folder created under temp_path to hold scratch directories.
const ScratchDirName = ".photocrawl-scratch"

// NewAreaFromConfig creates an Area based on the staging type.
func NewAreaFromConfig(cfg *config.Config, idgen crawl.IDGenerator) (*Area, error) {
	switch cfg.Staging.Type {
	case "filesystem", "":
		dir := cfg.StagingDir()
		if dir == "" {
			return nil, fmt.Errorf("filesystem staging requires temp_path or staging dir to be set")
		}
		return NewArea(filepath.Join(dir, ScratchDirName), idgen)
	case "temp":
		return NewArea(filepath.Join(os.TempDir(), "photocrawl-scratch"), idgen)
	default:
		return nil, fmt.Errorf("unknown staging type: %s", cfg.Staging.Type)
	}
}
