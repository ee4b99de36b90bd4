package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"photocrawl/internal/config"
	"photocrawl/internal/crawl"
	"photocrawl/internal/fs"
	"photocrawl/internal/model"
	"photocrawl/internal/staging"
	"photocrawl/internal/testutil"
)

var testZone = time.FixedZone("UTC-5", -5*3600)

func newTestStager(t *testing.T) (*Stager, *staging.Area, *crawl.Stats) {
	t.Helper()
	area, err := staging.NewArea(filepath.Join(t.TempDir(), "scratch"), testutil.NewSequentialIDs("s"))
	if err != nil {
		t.Fatalf("NewArea() error = %v", err)
	}
	stats := crawl.NewStats()
	s := NewStager(
		area,
		fs.NewIgnoreMatcher(config.DefaultIgnoreFolders),
		fs.NewExtensionClassifier(config.DefaultMediaExtensions, config.DefaultArchiveExtensions),
		testZone,
		crawl.NewNopLogger(),
		stats,
	)
	return s, area, stats
}

func assertAreaEmpty(t *testing.T, area *staging.Area) {
	t.Helper()
	entries, err := os.ReadDir(area.Root())
	if err != nil {
		t.Fatalf("reading scratch root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch root not empty: %d entries left", len(entries))
	}
}

func TestStager_Process(t *testing.T) {
	s, area, stats := newTestStager(t)

	modified := time.Date(2019, 7, 4, 10, 30, 0, 0, time.UTC)
	archivePath := filepath.Join(t.TempDir(), "holiday.zip")
	testutil.WriteZip(t, archivePath, []testutil.ZipEntry{
		{Name: "holiday/", Modified: modified},
		{Name: "holiday/IMG_0001.jpg", Body: []byte("one"), Modified: modified},
		{Name: "holiday/IMG_0002.JPG", Body: []byte("two"), Modified: modified},
		{Name: "holiday/broken.jpg", Body: []byte("bad"), Modified: modified},
		{Name: "clip.mov", Body: []byte("three"), Modified: modified},
		{Name: "__MACOSX/holiday/._IMG_0001.jpg", Body: []byte("resource fork"), Modified: modified},
		{Name: "holiday/notes.txt", Body: []byte("text"), Modified: modified},
	})

	type seen struct {
		cand    model.Candidate
		content string
		mtime   time.Time
	}
	var got []seen
	ingest := func(c model.Candidate) error {
		data, err := os.ReadFile(c.SourcePath)
		if err != nil {
			t.Errorf("candidate %s not readable during ingest: %v", c.Name, err)
		}
		info, _ := os.Stat(c.SourcePath)
		got = append(got, seen{cand: c, content: string(data), mtime: info.ModTime()})
		if c.Name == "broken.jpg" {
			return &crawl.ItemError{Op: "copy", Path: c.SourcePath, Class: crawl.ErrTransientIO, Err: errors.New("disk full")}
		}
		return nil
	}

	if err := s.Process(archivePath, ingest); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(got) != 4 {
		t.Fatalf("ingest called %d times, want 4", len(got))
	}
	wantFallback := time.Date(2019, 7, 4, 10, 30, 0, 0, testZone)
	wantNames := map[string]string{
		"IMG_0001.jpg": "one",
		"IMG_0002.JPG": "two",
		"broken.jpg":   "bad",
		"clip.mov":     "three",
	}
	for _, g := range got {
		want, ok := wantNames[g.cand.Name]
		if !ok {
			t.Errorf("unexpected candidate %q", g.cand.Name)
			continue
		}
		if g.content != want {
			t.Errorf("%s content = %q, want %q", g.cand.Name, g.content, want)
		}
		if g.cand.Origin != model.OriginArchive {
			t.Errorf("%s origin = %v, want archive", g.cand.Name, g.cand.Origin)
		}
		if !g.cand.Fallback.Equal(wantFallback) {
			t.Errorf("%s fallback = %v, want %v", g.cand.Name, g.cand.Fallback, wantFallback)
		}
		if !g.mtime.Equal(wantFallback) {
			t.Errorf("%s mtime = %v, want %v", g.cand.Name, g.mtime, wantFallback)
		}
		if _, err := os.Stat(g.cand.SourcePath); !os.IsNotExist(err) {
			t.Errorf("%s extracted copy not deleted", g.cand.Name)
		}
	}

	counts := stats.Snapshot()
	if counts.Failed != 1 {
		t.Errorf("Failed = %d, want 1", counts.Failed)
	}
	if counts.NonMedia != 1 {
		t.Errorf("NonMedia = %d, want 1", counts.NonMedia)
	}
	assertAreaEmpty(t, area)
}

func TestStager_FatalStopsArchive(t *testing.T) {
	s, area, _ := newTestStager(t)

	archivePath := filepath.Join(t.TempDir(), "a.zip")
	testutil.WriteZip(t, archivePath, []testutil.ZipEntry{
		{Name: "a.jpg", Body: []byte("a")},
		{Name: "b.jpg", Body: []byte("b")},
	})

	calls := 0
	storageFault := errors.Join(crawl.ErrStorage, errors.New("disk I/O error"))
	err := s.Process(archivePath, func(model.Candidate) error {
		calls++
		return storageFault
	})
	if !errors.Is(err, crawl.ErrStorage) {
		t.Fatalf("Process() error = %v, want ErrStorage", err)
	}
	if calls != 1 {
		t.Errorf("ingest called %d times after fatal error, want 1", calls)
	}
	assertAreaEmpty(t, area)
}

func TestStager_CorruptArchive(t *testing.T) {
	s, area, _ := newTestStager(t)

	archivePath := filepath.Join(t.TempDir(), "corrupt.zip")
	if err := os.WriteFile(archivePath, []byte("PK\x03\x04 definitely not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := s.Process(archivePath, func(model.Candidate) error {
		t.Error("ingest called for corrupt archive")
		return nil
	})
	if !errors.Is(err, crawl.ErrArchive) {
		t.Fatalf("Process() error = %v, want ErrArchive", err)
	}
	var archErr *Error
	if !errors.As(err, &archErr) || archErr.Path != archivePath {
		t.Errorf("error = %#v, want *archive.Error for %s", err, archivePath)
	}
	assertAreaEmpty(t, area)
}

func TestStager_EmptyArchive(t *testing.T) {
	s, area, _ := newTestStager(t)

	archivePath := filepath.Join(t.TempDir(), "empty.zip")
	testutil.WriteZip(t, archivePath, nil)

	if err := s.Process(archivePath, func(model.Candidate) error { return nil }); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	assertAreaEmpty(t, area)
}
