package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"photocrawl/internal/archive"
	"photocrawl/internal/config"
	"photocrawl/internal/crawl"
	"photocrawl/internal/database"
	"photocrawl/internal/encryption"
	"photocrawl/internal/exifdate"
	"photocrawl/internal/export"
	"photocrawl/internal/fingerprint"
	"photocrawl/internal/fs"
	"photocrawl/internal/library"
	"photocrawl/internal/model"
	"photocrawl/internal/staging"
	"photocrawl/internal/vault"
)

// Options adjust how an App is built. The zero value is usable.
type Options struct {
	Debug  bool      // echo DEBUG and INFO records to Stderr
	Stderr io.Writer // defaults to os.Stderr
}

// App is the application layer between the CLI and the crawl packages.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the catalog lifecycle on Close.
type App struct {
	cfg       *config.Config
	loc       *time.Location
	catalog   *database.SQLiteCatalog
	fsmgr     *fs.OSFilesystemManager
	area      *staging.Area
	snapshots *crawl.Snapshotter // nil when no vault is configured
	logger    crawl.Logger
	op        *Operation
	logFile   *os.File
}

// NewApp creates a fully wired App from cfg. operation names the CLI command
// being run (e.g. "scan", "lookup"). The caller must call Close when done.
func NewApp(ctx context.Context, cfg *config.Config, operation string, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	sl, logFile, err := newLogger(cfg.LogDir, runID, opts.Stderr, opts.Debug || cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}

	a := &App{
		cfg:     cfg,
		loc:     loc,
		fsmgr:   fs.NewOSFilesystemManager(),
		logger:  logger,
		op:      NewOperation(operation, ""),
		logFile: logFile,
	}
	if err := a.init(ctx); err != nil {
		a.closeQuietly()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	if err := ValidateWorkDirs(a.cfg); err != nil {
		return err
	}

	area, err := staging.NewAreaFromConfig(a.cfg, crawl.UUIDGenerator{})
	if err != nil {
		return fmt.Errorf("creating staging area: %w", err)
	}
	a.area = area

	catalog, err := database.NewCatalogFromConfig(a.cfg, fingerprint.Version, a.logger)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	a.catalog = catalog
	if err := catalog.CheckMigrations(); err != nil {
		return fmt.Errorf("catalog schema out of date: %w", err)
	}

	snapshots, err := newSnapshotter(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.snapshots = snapshots
	if snapshots == nil {
		return nil
	}

	// The local catalog must not be older than the vault snapshot.
	remote, err := snapshots.Version(a.cfg.CatalogID)
	if err != nil {
		return fmt.Errorf("checking vault snapshot version: %w", err)
	}
	local, err := catalog.MaxRunID()
	if err != nil {
		return fmt.Errorf("checking local catalog version: %w", err)
	}
	if remote > local {
		return fmt.Errorf("local catalog is behind the vault snapshot (local=%d, vault=%d): run `photocrawl catalog pull --force`", local, remote)
	}
	return nil
}

func newSnapshotter(ctx context.Context, cfg *config.Config, logger crawl.Logger) (*crawl.Snapshotter, error) {
	v, err := vault.NewVaultFromConfig(ctx, cfg.Vault)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	if v == nil {
		return nil, nil
	}
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if enc != nil && !enc.IsConfigured() {
		return nil, fmt.Errorf("encryption is enabled but no keys exist: run `photocrawl keys init`")
	}
	return crawl.NewSnapshotter(v, enc, logger), nil
}

// ValidateWorkDirs creates the output, temp and database directories and
// checks that each accepts writes.
func ValidateWorkDirs(cfg *config.Config) error {
	dirs := []struct{ name, path string }{
		{"output_path", cfg.OutputPath},
		{"temp_path", cfg.StagingDir()},
		{"database_path", cfg.DatabasePath},
	}
	for _, d := range dirs {
		if d.path == "" || (d.name == "database_path" && cfg.Catalog.Type == "memory") {
			continue
		}
		if err := os.MkdirAll(d.path, 0o755); err != nil {
			return fmt.Errorf("creating %s %s: %w", d.name, d.path, err)
		}
		f, err := os.CreateTemp(d.path, ".photocrawl-writable-*")
		if err != nil {
			return fmt.Errorf("%s %s is not writable: %w", d.name, d.path, err)
		}
		f.Close()
		os.Remove(f.Name())
	}
	return nil
}

// persistOperation saves the operation as a run, giving it an ID.
// Only catalog-mutating commands call this.
func (a *App) persistOperation() error {
	if a.op.Persisted() {
		return nil
	}
	run, err := a.catalog.CreateRun(a.op.Name, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	a.op.ID = run.ID
	return nil
}

// ScanSummary reports what one scan did.
type ScanSummary struct {
	Root     string
	Counts   crawl.Counts
	Before   int64
	After    int64
	Duration time.Duration
}

// Scan ingests everything under rawPath. An empty rawPath uses the configured scan_path.
// The returned error is non-nil when the root is unusable or a catalog fault stopped the run;
// the summary is still filled with what was done before the fault.
func (a *App) Scan(rawPath string) (*ScanSummary, error) {
	if rawPath == "" {
		rawPath = a.cfg.ScanPath
	}
	if rawPath == "" {
		return nil, fmt.Errorf("no scan path given and scan_path is not configured")
	}
	root, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan path is not a directory: %s", root)
	}

	a.op.Parameters = root
	if err := a.persistOperation(); err != nil {
		return nil, err
	}

	if n, err := a.area.Sweep(staging.StaleAfter); err != nil {
		a.logger.Warn("cannot remove stale scratch directories", "root", a.area.Root(), "error", err)
	} else if n > 0 {
		a.logger.Info("removed stale scratch directories", "root", a.area.Root(), "count", n)
	}

	before, err := a.catalog.Count()
	if err != nil {
		a.op.Fail()
		return nil, err
	}
	a.logger.Info("scan started", "root", root, "output", a.cfg.OutputPath, "records", before)

	crawler, stats, err := a.buildCrawler(root)
	if err != nil {
		a.op.Fail()
		return nil, err
	}

	start := time.Now()
	crawlErr := crawler.Crawl(root)

	summary := &ScanSummary{Root: root, Counts: stats.Snapshot(), Before: before, Duration: time.Since(start)}
	a.op.Counts = summary.Counts
	if crawlErr != nil {
		a.op.Fail()
		a.logger.Error("scan aborted", "root", root, "error", crawlErr)
		return summary, crawlErr
	}

	after, err := a.catalog.Count()
	if err != nil {
		a.op.Fail()
		return summary, err
	}
	summary.After = after
	a.logger.Info("scan finished",
		"root", root,
		"scanned", summary.Counts.Scanned(),
		"copied", summary.Counts.Copied,
		"replaced", summary.Counts.Replaced,
		"skipped", summary.Counts.Skipped(),
		"failed", summary.Counts.Failed,
		"records_before", before,
		"records_after", after,
	)
	return summary, nil
}

func (a *App) buildCrawler(root string) (*crawl.Crawler, *crawl.Stats, error) {
	patterns := append([]string(nil), a.cfg.Filesystem.IgnoreFolders...)
	extra, err := fs.ParseIgnoreFile(filepath.Join(root, fs.IgnoreFileName))
	if err != nil {
		return nil, nil, err
	}
	patterns = append(patterns, extra...)
	filter := fs.NewIgnoreMatcher(patterns)

	derived, err := crawl.NewDerivedFilter(a.cfg.Organize.DerivedPatterns)
	if err != nil {
		return nil, nil, fmt.Errorf("compiling derived_patterns: %w", err)
	}

	media := fs.NewExtensionClassifier(a.cfg.Filesystem.MediaExtensions, a.cfg.Filesystem.ArchiveExtensions)
	stats := crawl.NewStats()
	engine := crawl.NewEngine(
		a.catalog,
		a.fsmgr,
		fingerprint.New(),
		exifdate.NewResolver(a.loc, a.logger),
		crawl.Layout{Root: a.cfg.OutputPath, Location: a.loc},
		derived,
		a.logger,
		crawl.RealClock{},
		stats,
	)
	stager := archive.NewStager(a.area, filter, media, a.loc, a.logger, stats)
	libraries := library.NewReader(filter, media, a.logger, stats)

	return crawl.NewCrawler(a.fsmgr, filter, media, stager, libraries, engine, a.logger, stats), stats, nil
}

// LookupResult describes how one file relates to the catalog.
type LookupResult struct {
	Path        string
	Fingerprint string
	BySource    *model.CatalogRecord // recorded from this exact path; may be nil
	ByContent   *model.CatalogRecord // recorded with the same content; may be nil
}

// Known reports whether the file's content is already in the catalog.
func (r *LookupResult) Known() bool {
	return r.ByContent != nil
}

// Lookup fingerprints rawPath and finds the catalog records it maps to.
func (a *App) Lookup(rawPath string) (*LookupResult, error) {
	p, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	fp, err := fingerprint.New().Fingerprint(p)
	if err != nil {
		return nil, err
	}
	bySource, err := a.catalog.FindBySourcePath(p)
	if err != nil {
		return nil, err
	}
	byContent, err := a.catalog.FindByFingerprint(fp)
	if err != nil {
		return nil, err
	}
	return &LookupResult{Path: p, Fingerprint: fp, BySource: bySource, ByContent: byContent}, nil
}

// History returns the most recent runs, newest first.
func (a *App) History(limit int) ([]*model.Run, error) {
	return a.catalog.ListRuns(limit)
}

// Export writes the catalog to outPath and returns the number of records written.
func (a *App) Export(outPath string, format export.Format) (int, error) {
	p, err := filepath.Abs(outPath)
	if err != nil {
		return 0, fmt.Errorf("resolving path: %w", err)
	}
	return export.NewExporter(a.catalog, a.loc, time.Now).WriteFile(p, format)
}

// Close finalizes the operation and closes all resources.
// For persisted operations it finishes the run record, snapshots the catalog
// and pushes the snapshot to the vault. Otherwise it just closes the catalog.
func (a *App) Close() error {
	var errs []error

	if a.op.Persisted() {
		if err := a.catalog.FinishRun(a.op.Run()); err != nil {
			errs = append(errs, fmt.Errorf("finishing run: %w", err))
		}

		var snapshot string
		if a.snapshots != nil {
			path, err := a.snapshotCatalog()
			if err != nil {
				errs = append(errs, err)
			}
			snapshot = path
		}

		if err := a.catalog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing catalog: %w", err))
		}

		if snapshot != "" {
			if err := a.pushSnapshot(snapshot, a.op.ID); err != nil {
				errs = append(errs, err)
			}
			os.Remove(snapshot)
		}
	} else if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing catalog: %w", err))
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return errors.Join(errs...)
}

// closeQuietly releases whatever init managed to open.
func (a *App) closeQuietly() {
	if a.catalog != nil {
		a.catalog.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func (a *App) snapshotCatalog() (string, error) {
	path := filepath.Join(a.area.Root(), "catalog-snapshot-"+crawl.UUIDGenerator{}.New()+".db")
	if err := a.catalog.BackupTo(path); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("snapshotting catalog: %w", err)
	}
	return path, nil
}

func (a *App) pushSnapshot(path string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening catalog snapshot: %w", err)
	}
	defer f.Close()

	if err := a.snapshots.Push(a.cfg.CatalogID, f, version); err != nil {
		return fmt.Errorf("pushing catalog snapshot: %w", err)
	}
	return nil
}

// PullCatalog restores the local catalog file from the latest vault snapshot.
// An existing catalog is only replaced when force is set.
func PullCatalog(ctx context.Context, cfg *config.Config, passphrase string, force bool) (int64, error) {
	if cfg.Catalog.Type == "memory" {
		return 0, fmt.Errorf("memory catalogs cannot be restored")
	}
	dest := filepath.Join(cfg.DatabasePath, database.CatalogFileName)
	if _, err := os.Stat(dest); err == nil && !force {
		return 0, fmt.Errorf("catalog already exists at %s (use --force to replace it)", dest)
	}

	snapshots, err := newSnapshotter(ctx, cfg, crawl.NewNopLogger())
	if err != nil {
		return 0, err
	}
	if snapshots == nil {
		return 0, fmt.Errorf("no vault configured")
	}
	version, err := snapshots.Version(cfg.CatalogID)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(cfg.DatabasePath, 0o755); err != nil {
		return 0, fmt.Errorf("creating database directory: %w", err)
	}
	tmp, err := os.CreateTemp(cfg.DatabasePath, ".pull-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := snapshots.Pull(cfg.CatalogID, tmp, passphrase); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("installing catalog: %w", err)
	}
	return version, nil
}

// InitKeys generates the snapshot encryption key pair.
func InitKeys(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return err
	}
	if enc == nil {
		return fmt.Errorf("encryption type is %q: set [encryption] type = \"age\" first", cfg.Encryption.Type)
	}
	if enc.IsConfigured() {
		return fmt.Errorf("keys already exist at %s", cfg.Encryption.PublicKeyPath)
	}
	return enc.Setup(passphrase)
}
