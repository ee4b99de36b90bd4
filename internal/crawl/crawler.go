package crawl

import (
	"fmt"
	"path/filepath"

	"photocrawl/internal/model"
)

// Crawler walks a tree depth-first and feeds every media file to an Ingester.
// Archives and photo libraries are delegated to their collaborators.
type Crawler struct {
	fsmgr    FilesystemManager
	filter   PathFilter
	media    MediaClassifier
	archives ArchiveProcessor // optional
	library  LibraryReader    // optional
	engine   Ingester
	logger   Logger
	stats    *Stats
}

// NewCrawler creates a Crawler. archives and library may be nil.
func NewCrawler(fsmgr FilesystemManager, filter PathFilter, media MediaClassifier, archives ArchiveProcessor, library LibraryReader, engine Ingester, logger Logger, stats *Stats) *Crawler {
	if stats == nil {
		stats = NewStats()
	}
	return &Crawler{
		fsmgr:    fsmgr,
		filter:   filter,
		media:    media,
		archives: archives,
		library:  library,
		engine:   engine,
		logger:   logger,
		stats:    stats,
	}
}

// Crawl processes everything under root. It returns an error only when root
// cannot be listed or a storage fault makes further work unsafe.
func (c *Crawler) Crawl(root string) error {
	info, err := c.fsmgr.Stat(root)
	if err != nil {
		return fmt.Errorf("reading scan root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scan root is not a directory: %s", root)
	}
	if _, err := c.fsmgr.ReadDir(root); err != nil {
		return fmt.Errorf("listing scan root: %w", err)
	}
	return c.walk(root)
}

func (c *Crawler) walk(dir string) error {
	if c.library != nil && c.library.IsLibrary(dir) {
		c.logger.Info("reading photo library", "path", dir)
		if err := c.library.Read(dir, c.offer); err != nil {
			if IsFatal(err) {
				return err
			}
			c.stats.AddLibraryError()
			c.logger.Warn("skipping photo library", "path", dir, "error", err)
		}
		return nil
	}

	entries, err := c.fsmgr.ReadDir(dir)
	if err != nil {
		c.stats.AddTraversalError()
		c.logger.Warn("cannot list folder", "path", dir, "error", err)
		return nil
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if c.filter != nil && c.filter.Ignored(path) {
			c.logger.Debug("ignoring path", "path", path)
			continue
		}

		if entry.IsDir() {
			if err := c.walk(path); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}

		switch {
		case c.media.IsMedia(entry.Name()):
			if err := c.ingestFile(path, entry.Name()); err != nil {
				return err
			}
		case c.archives != nil && c.media.IsArchive(entry.Name()):
			c.logger.Info("processing archive", "path", path)
			if err := c.archives.Process(path, c.offer); err != nil {
				if IsFatal(err) {
					return err
				}
				c.stats.AddArchiveError()
				c.logger.Warn("skipping archive", "path", path, "error", err)
			}
		default:
			c.stats.AddNonMedia()
		}
	}
	return nil
}

func (c *Crawler) ingestFile(path, name string) error {
	info, err := c.fsmgr.Stat(path)
	if err != nil {
		c.stats.AddTraversalError()
		c.logger.Warn("file vanished", "path", path, "error", err)
		return nil
	}
	return c.offer(model.Candidate{
		SourcePath: path,
		Name:       name,
		Fallback:   info.ModTime(),
		Origin:     model.OriginFolder,
	})
}

// offer hands one candidate to the engine and swallows everything but storage faults.
func (c *Crawler) offer(cand model.Candidate) error {
	res, err := c.engine.Ingest(cand)
	if err != nil {
		return err
	}
	if res.Outcome == OutcomeFailed {
		c.logger.Warn("candidate failed", "path", cand.SourcePath, "origin", cand.Origin.String(), "error", res.Reason)
	}
	return nil
}
