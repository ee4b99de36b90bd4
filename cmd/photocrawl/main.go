package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photocrawl/internal/app"
	"photocrawl/internal/config"
	"photocrawl/internal/export"

	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const version = "0.3.0"

func main() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config, applies flag overrides and creates an App.
// The caller must defer a.Close().
func newApp(cmd *cobra.Command, operation string, override func(*config.Config)) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	debug, _ := cmd.Flags().GetBool("debug")

	a, err := app.NewApp(cmd.Context(), cfg, operation, app.Options{Debug: debug})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase prompts on the terminal, or reads one line from stdin when it is not a terminal.
// PHOTOCRAWL_PASSPHRASE wins over both.
func readPassphrase(prompt string, confirm bool) (string, error) {
	if p := os.Getenv("PHOTOCRAWL_PASSPHRASE"); p != "" {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		again, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		if string(again) != string(pass) {
			return "", fmt.Errorf("passphrases do not match")
		}
	}
	return string(pass), nil
}

var rootCmd = &cobra.Command{
	Use:   "photocrawl",
	Short: "Collect photos and videos into a deduplicated, date-organized library",
	Long: `photocrawl walks folders, zip archives and photo libraries, copies every
media file it has not seen before into <output>/YYYY/MM/DD/ and records it
in a catalog so later runs skip what is already there.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional
		_ = godotenv.Load()
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		catalogID := uuid.New().String()
		cfg := config.NewConfig(catalogID, defaults.BaseDir)
		cfg.LogDir = defaults.LogDir

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Catalog ID: %s\n", catalogID)
		fmt.Printf("Library:    %s\n", cfg.OutputPath)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Catalog ID: %s\n", cfg.CatalogID)
		fmt.Printf("Scan path:  %s\n", cfg.ScanPath)
		fmt.Printf("Library:    %s\n", cfg.OutputPath)
		fmt.Printf("Temp:       %s\n", cfg.TempPath)
		fmt.Printf("Database:   %s (%s)\n", cfg.DatabasePath, cfg.Catalog.Type)
		fmt.Printf("Timezone:   %s\n", cfg.Organize.Timezone)
		fmt.Printf("Vault:      %s\n", cfg.Vault.Type)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan [PATH]",
	Short: "Ingest media found under PATH (default: scan_path)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		temp, _ := cmd.Flags().GetString("temp")
		database, _ := cmd.Flags().GetString("database")

		a, err := newApp(cmd, "scan", func(cfg *config.Config) {
			if output != "" {
				cfg.OutputPath = output
			}
			if temp != "" {
				cfg.TempPath = temp
			}
			if database != "" {
				cfg.DatabasePath = database
			}
		})
		if err != nil {
			return err
		}
		defer a.Close()

		target := ""
		if len(args) > 0 {
			target = args[0]
		}

		summary, err := a.Scan(target)
		if summary != nil {
			printSummary(summary)
		}
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		return nil
	},
}

func printSummary(s *app.ScanSummary) {
	c := s.Counts
	fmt.Printf("Scanned %s in %s\n", s.Root, s.Duration.Truncate(time.Millisecond))
	fmt.Printf("  folder images:    %d\n", c.FolderImages)
	fmt.Printf("  archive images:   %d\n", c.ArchiveImages)
	fmt.Printf("  library images:   %d\n", c.LibraryImages)
	fmt.Printf("  copied:           %d\n", c.Copied)
	fmt.Printf("  replaced:         %d\n", c.Replaced)
	fmt.Printf("  duplicates:       %d\n", c.SkippedDuplicate)
	fmt.Printf("  inferior:         %d\n", c.SkippedInferior)
	fmt.Printf("  derived:          %d\n", c.SkippedDerived)
	fmt.Printf("  failed:           %d\n", c.Failed)
	fmt.Printf("  non-media:        %d\n", c.NonMedia)
	if c.Unavailable > 0 {
		fmt.Printf("  unavailable:      %d\n", c.Unavailable)
	}
	if errs := c.ArchiveErrors + c.LibraryErrors + c.TraversalErrors; errs > 0 {
		fmt.Printf("  unreadable:       %d\n", errs)
	}
	fmt.Printf("Catalog records: %d -> %d\n", s.Before, s.After)
}

// lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup FILENAME",
	Short: "Check whether a file is already in the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "lookup", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Lookup(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s  %s\n", res.Fingerprint, res.Path)
		if !res.Known() {
			fmt.Println("Not in catalog.")
		} else {
			fmt.Printf("Stored at %s (taken %s)\n",
				res.ByContent.DestinationPath,
				res.ByContent.Time().Format("2006-01-02 15:04:05"),
			)
			if res.ByContent.SourcePath != res.Path {
				fmt.Printf("Ingested from %s\n", res.ByContent.SourcePath)
			}
		}
		if res.BySource != nil && (res.ByContent == nil || res.BySource.ID != res.ByContent.ID) {
			fmt.Printf("This path was ingested with different content, stored at %s\n", res.BySource.DestinationPath)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View scan history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "history", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No scans recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt != nil {
				duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-8s  %s  %-8s  copied:%-5d replaced:%-4d dup:%-5d failed:%-3d %s  %s\n",
				r.ID,
				r.Operation,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Status,
				r.Copied,
				r.Replaced,
				r.SkippedDuplicate,
				r.Failed,
				duration,
				r.Parameters,
			)
		}
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the catalog to a YAML or Parquet file",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		formatName, _ := cmd.Flags().GetString("format")
		if out == "" {
			return fmt.Errorf("--out is required")
		}
		if formatName == "" {
			formatName = strings.TrimPrefix(filepath.Ext(out), ".")
		}
		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "export", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Export(out, format)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("Exported %d record(s) to %s\n", n, out)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage snapshot encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the age key pair used to encrypt catalog snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pass, err := readPassphrase("Passphrase for the private key: ", true)
		if err != nil {
			return err
		}
		if err := app.InitKeys(cfg, pass); err != nil {
			return fmt.Errorf("initializing keys: %w", err)
		}
		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the catalog snapshot in the vault",
}

var catalogPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Restore the local catalog from the vault snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pass := ""
		if cfg.Encryption.Type != "" && cfg.Encryption.Type != "none" {
			if pass, err = readPassphrase("Passphrase: ", false); err != nil {
				return err
			}
		}

		version, err := app.PullCatalog(cmd.Context(), cfg, pass, force)
		if err != nil {
			return fmt.Errorf("pulling catalog: %w", err)
		}
		fmt.Printf("Restored catalog %s at version %d\n", cfg.CatalogID, version)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Echo debug logging to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys and catalog subcommands
	keysCmd.AddCommand(keysInitCmd)
	catalogCmd.AddCommand(catalogPullCmd)
	catalogPullCmd.Flags().Bool("force", false, "Replace an existing local catalog")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("output", "o", "", "Library root (overrides output_path)")
	scanCmd.Flags().StringP("temp", "t", "", "Scratch directory for archives (overrides temp_path)")
	scanCmd.Flags().StringP("database", "d", "", "Catalog directory (overrides database_path)")
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of scans to show")
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "", "yaml or parquet (default: from --out extension)")
	exportCmd.Flags().String("out", "", "Output file")
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(catalogCmd)
}
