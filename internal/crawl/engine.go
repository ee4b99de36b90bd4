package crawl

import (
	"errors"
	"fmt"
	"path/filepath"

	"photocrawl/internal/model"
)

// Ingester decides the fate of a single candidate.
type Ingester interface {
	Ingest(c model.Candidate) (Result, error)
}

// Engine is the ingestion and dedup pipeline. It consults the catalog,
// places new content in the dated output tree and records it.
type Engine struct {
	catalog       Catalog
	fsmgr         FilesystemManager
	fingerprinter Fingerprinter
	resolver      TimestampResolver
	layout        Layout
	derived       *DerivedFilter
	logger        Logger
	clock         Clock
	stats         *Stats
}

var _ Ingester = (*Engine)(nil)

// NewEngine creates an Engine with the provided dependencies.
// derived may be nil to disable derived-artifact filtering; stats may be nil.
func NewEngine(catalog Catalog, fsmgr FilesystemManager, fingerprinter Fingerprinter, resolver TimestampResolver, layout Layout, derived *DerivedFilter, logger Logger, clock Clock, stats *Stats) *Engine {
	if stats == nil {
		stats = NewStats()
	}
	return &Engine{
		catalog:       catalog,
		fsmgr:         fsmgr,
		fingerprinter: fingerprinter,
		resolver:      resolver,
		layout:        layout,
		derived:       derived,
		logger:        logger,
		clock:         clock,
		stats:         stats,
	}
}

// Stats returns the counters this engine records into.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// Ingest runs one candidate through the pipeline.
// Every non-fatal problem is reported in the Result; the error is non-nil
// only when the catalog can no longer be trusted and the run must stop.
func (e *Engine) Ingest(c model.Candidate) (Result, error) {
	res, err := e.ingest(c)
	e.stats.Record(c.Origin, res.Outcome)
	return res, err
}

// Offer adapts Ingest to the IngestFunc shape used by traversal collaborators.
// Only fatal errors are returned.
func (e *Engine) Offer(c model.Candidate) error {
	_, err := e.Ingest(c)
	return err
}

func (e *Engine) ingest(c model.Candidate) (Result, error) {
	name := filepath.Base(c.Name)

	if e.derived.Matches(name) {
		e.logger.Debug("skipping derived artifact", "path", c.SourcePath)
		return Result{Outcome: OutcomeSkippedDerived}, nil
	}

	rec, err := e.catalog.FindBySourcePath(c.SourcePath)
	if err != nil {
		return e.catalogFault("looking up source path", err)
	}
	if rec != nil && e.fsmgr.Exists(rec.DestinationPath) {
		e.logger.Debug("already ingested from this path", "path", c.SourcePath, "destination", rec.DestinationPath)
		return Result{Outcome: OutcomeSkippedDuplicate, Destination: rec.DestinationPath}, nil
	}

	fp, err := e.fingerprinter.Fingerprint(c.SourcePath)
	if err != nil {
		e.logger.Warn("cannot fingerprint file", "path", c.SourcePath, "error", err)
		return Result{Outcome: OutcomeFailed, Reason: transientError("fingerprint", c.SourcePath, err)}, nil
	}

	heal := false
	rec, err = e.catalog.FindByFingerprint(fp)
	if err != nil {
		return e.catalogFault("looking up fingerprint", err)
	}
	if rec != nil {
		if e.fsmgr.Exists(rec.DestinationPath) {
			e.logger.Debug("duplicate content", "path", c.SourcePath, "destination", rec.DestinationPath)
			return Result{Outcome: OutcomeSkippedDuplicate, Destination: rec.DestinationPath}, nil
		}
		e.logger.Info("recorded destination missing, copying again", "path", c.SourcePath, "destination", rec.DestinationPath)
		heal = true
	}

	ts := e.resolver.Resolve(c.SourcePath, c.Fallback)
	dir := e.layout.Dir(ts)
	if err := e.fsmgr.MkdirAll(dir); err != nil {
		e.logger.Warn("cannot create destination folder", "path", dir, "error", err)
		return Result{Outcome: OutcomeFailed, Reason: transientError("mkdir", dir, err)}, nil
	}

	dest := filepath.Join(dir, name)
	outcome := OutcomeCopied
	if e.fsmgr.Exists(dest) {
		replace, err := e.resolveCollision(c.SourcePath, dest)
		if err != nil {
			e.logger.Warn("cannot compare with existing file, copying anyway", "path", c.SourcePath, "destination", dest, "error", err)
		} else if !replace {
			return Result{Outcome: OutcomeSkippedInferior, Destination: dest}, nil
		}
		outcome = OutcomeReplaced
	}

	if err := e.fsmgr.CopyFile(c.SourcePath, dest); err != nil {
		e.logger.Warn("copy failed", "path", c.SourcePath, "destination", dest, "error", err)
		return Result{Outcome: OutcomeFailed, Destination: dest, Reason: transientError("copy", c.SourcePath, err)}, nil
	}

	if heal {
		if err := e.catalog.Relink(fp, c.SourcePath, dest); err != nil {
			return e.catalogFault("relinking record", err)
		}
		e.logger.Info("file copied", "path", c.SourcePath, "destination", dest, "relinked", true)
		return Result{Outcome: outcome, Destination: dest}, nil
	}

	record := &model.CatalogRecord{
		Name:            name,
		SourcePath:      c.SourcePath,
		DestinationPath: dest,
		Timestamp:       model.Epoch(ts),
		Fingerprint:     fp,
		CreatedAt:       e.clock.Now(),
	}
	if err := e.catalog.Insert(record); err != nil {
		if errors.Is(err, ErrIntegrity) {
			e.logger.Warn("fingerprint recorded concurrently, treating as duplicate", "path", c.SourcePath, "fingerprint", fp)
			return Result{Outcome: OutcomeSkippedDuplicate, Destination: dest}, nil
		}
		return e.catalogFault("recording file", err)
	}

	e.logger.Info("file copied", "path", c.SourcePath, "destination", dest, "outcome", outcome.String())
	return Result{Outcome: outcome, Destination: dest}, nil
}

// resolveCollision reports whether the incoming file should overwrite dest.
func (e *Engine) resolveCollision(src, dest string) (bool, error) {
	incoming, err := e.fsmgr.Stat(src)
	if err != nil {
		return false, fmt.Errorf("stat incoming: %w", err)
	}
	existing, err := e.fsmgr.Stat(dest)
	if err != nil {
		return false, fmt.Errorf("stat existing: %w", err)
	}

	v := decideCollision(incoming, existing)
	e.logger.Debug("destination occupied",
		"path", src,
		"destination", dest,
		"newer", v.newer,
		"larger", v.larger,
		"replace", v.replace,
	)
	return v.replace, nil
}

// catalogFault turns a catalog error into a result. Storage faults are
// returned to the caller; anything else fails only this candidate.
func (e *Engine) catalogFault(op string, err error) (Result, error) {
	err = fmt.Errorf("%s: %w", op, err)
	if IsFatal(err) {
		e.logger.Error("catalog failure", "error", err)
		return Result{Outcome: OutcomeFailed, Reason: err}, err
	}
	e.logger.Warn("catalog lookup failed", "error", err)
	return Result{Outcome: OutcomeFailed, Reason: err}, nil
}
