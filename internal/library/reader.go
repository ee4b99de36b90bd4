// Package library reads Apple Photos and legacy iPhoto library packages.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"photocrawl/internal/crawl"
	"photocrawl/internal/model"
)

// Kind identifies a library format.
type Kind int

const (
	KindNone Kind = iota
	KindIPhoto
	KindPhotos
)

func (k Kind) String() string {
	switch k {
	case KindIPhoto:
		return "iphoto"
	case KindPhotos:
		return "photos"
	default:
		return "none"
	}
}

const (
	photosSuffix  = ".photoslibrary"
	iphotoSuffix  = ".iphoto"
	iphotoThumbs  = "data"
	photosDBPath  = "database/Photos.sqlite"
	originalsPath = "originals"
)

// Reader implements crawl.LibraryReader.
type Reader struct {
	filter crawl.PathFilter
	media  crawl.MediaClassifier
	logger crawl.Logger
	stats  *crawl.Stats
}

var _ crawl.LibraryReader = (*Reader)(nil)

func NewReader(filter crawl.PathFilter, media crawl.MediaClassifier, logger crawl.Logger, stats *crawl.Stats) *Reader {
	if stats == nil {
		stats = crawl.NewStats()
	}
	return &Reader{filter: filter, media: media, logger: logger, stats: stats}
}

// Detect classifies dir. A .photoslibrary package is a Photos library; a
// folder with a child named *.iphoto is an old iPhoto library.
func Detect(dir string) Kind {
	if strings.HasSuffix(strings.ToLower(dir), photosSuffix) {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return KindPhotos
		}
		return KindNone
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return KindNone
	}
	for _, e := range entries {
		if strings.HasSuffix(strings.ToLower(e.Name()), iphotoSuffix) {
			return KindIPhoto
		}
	}
	return KindNone
}

func (r *Reader) IsLibrary(dir string) bool {
	return Detect(dir) != KindNone
}

// Read offers every available asset of the library at dir.
// A Photos database that cannot be read yields *Error and nothing is offered.
func (r *Reader) Read(dir string, ingest crawl.IngestFunc) error {
	switch kind := Detect(dir); kind {
	case KindPhotos:
		return r.readPhotos(dir, ingest)
	case KindIPhoto:
		r.logger.Info("reading iPhoto library without metadata", "path", dir)
		return r.walk(dir, true, ingest)
	default:
		return &Error{Path: dir, Err: errors.New("not a photo library")}
	}
}

func (r *Reader) readPhotos(dir string, ingest crawl.IngestFunc) error {
	dbPath := filepath.Join(dir, filepath.FromSlash(photosDBPath))
	if _, err := os.Stat(dbPath); err != nil {
		r.logger.Warn("Photos.sqlite not found, walking originals without metadata", "path", dir)
		return r.walk(filepath.Join(dir, originalsPath), false, ingest)
	}

	db, err := openPhotosDB(dbPath)
	if err != nil {
		return &Error{Path: dir, Err: fmt.Errorf("opening Photos.sqlite: %w", err)}
	}
	assets, err := readAssets(db)
	db.Close()
	if err != nil {
		return &Error{Path: dir, Err: err}
	}
	r.logger.Debug("read Photos.sqlite", "path", dir, "assets", len(assets))

	offered := 0
	for _, a := range assets {
		src, name := filepath.Join(dir, a.RelPath()), a.DisplayName()
		info, err := os.Stat(src)
		if err != nil {
			edited := a.editedPath(dir)
			if edited == "" {
				r.stats.AddUnavailable()
				r.logger.Debug("asset not on disk", "file", a.Filename, "original", a.Original)
				continue
			}
			if info, err = os.Stat(edited); err != nil {
				r.stats.AddUnavailable()
				continue
			}
			r.logger.Debug("original missing, using edited render", "file", a.Filename, "render", edited)
			src, name = edited, editedName(name, edited)
		}
		if !r.media.IsMedia(name) && !r.media.IsMedia(a.Filename) {
			r.stats.AddNonMedia()
			continue
		}

		fallback := a.Created
		if fallback.IsZero() {
			fallback = info.ModTime()
		}
		if err := ingest(model.Candidate{
			SourcePath: src,
			Name:       name,
			Fallback:   fallback,
			Origin:     model.OriginLibrary,
		}); err != nil {
			return err
		}
		offered++
	}

	r.logger.Info("photo library processed", "path", dir, "offered", offered, "assets", len(assets))
	return nil
}

// walk offers media files under dir using their mtime as the fallback.
// In iPhoto libraries the Data folder holds thumbnails and is skipped.
func (r *Reader) walk(dir string, skipThumbs bool, ingest crawl.IngestFunc) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.stats.AddTraversalError()
		r.logger.Warn("cannot list library folder", "path", dir, "error", err)
		return nil
	}

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if r.filter != nil && r.filter.Ignored(path) {
			continue
		}
		if e.IsDir() {
			if skipThumbs && strings.EqualFold(e.Name(), iphotoThumbs) {
				r.logger.Debug("skipping iPhoto thumbnails", "path", path)
				continue
			}
			if err := r.walk(path, skipThumbs, ingest); err != nil {
				return err
			}
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		if !r.media.IsMedia(e.Name()) {
			r.stats.AddNonMedia()
			continue
		}

		info, err := e.Info()
		if err != nil {
			r.stats.AddTraversalError()
			continue
		}
		if err := ingest(model.Candidate{
			SourcePath: path,
			Name:       e.Name(),
			Fallback:   info.ModTime(),
			Origin:     model.OriginLibrary,
		}); err != nil {
			return err
		}
	}
	return nil
}
