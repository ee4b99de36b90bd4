// Package export writes a read-only copy of the catalog in YAML or Parquet.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"photocrawl/internal/model"
)

// Format names an output encoding.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "parquet", "pq":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want yaml or parquet)", s)
	}
}

// Source is the read side of the catalog an export needs.
type Source interface {
	Each(fn func(*model.CatalogRecord) error) error
	ListRuns(limit int) ([]*model.Run, error)
}

// Record is one exported catalog row.
type Record struct {
	ID          int64   `yaml:"id" parquet:"id"`
	Name        string  `yaml:"name" parquet:"name"`
	Source      string  `yaml:"source" parquet:"source"`
	Destination string  `yaml:"destination" parquet:"destination"`
	Timestamp   float64 `yaml:"timestamp" parquet:"timestamp"`
	TakenAt     string  `yaml:"taken_at" parquet:"taken_at"`
	Fingerprint string  `yaml:"fingerprint" parquet:"fingerprint,dict"`
}

// Run is one exported run summary.
type Run struct {
	ID               int64  `yaml:"id"`
	Operation        string `yaml:"operation"`
	Parameters       string `yaml:"parameters,omitempty"`
	Status           string `yaml:"status"`
	StartedAt        string `yaml:"started_at"`
	FinishedAt       string `yaml:"finished_at,omitempty"`
	Copied           int64  `yaml:"copied"`
	Replaced         int64  `yaml:"replaced"`
	SkippedDuplicate int64  `yaml:"skipped_duplicate"`
	SkippedInferior  int64  `yaml:"skipped_inferior"`
	SkippedDerived   int64  `yaml:"skipped_derived"`
	Failed           int64  `yaml:"failed"`
}

// Document is the YAML export layout.
type Document struct {
	GeneratedAt string   `yaml:"generated_at"`
	RecordCount int      `yaml:"record_count"`
	Records     []Record `yaml:"records"`
	Runs        []Run    `yaml:"runs,omitempty"`
}

// MaxRuns caps the run history included in YAML exports.
const MaxRuns = 50

// Exporter writes catalog snapshots. loc controls how taken_at is rendered.
type Exporter struct {
	src Source
	loc *time.Location
	now func() time.Time
}

func NewExporter(src Source, loc *time.Location, now func() time.Time) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Exporter{src: src, loc: loc, now: now}
}

// Write encodes the catalog to w and returns the number of records written.
func (e *Exporter) Write(w io.Writer, format Format) (int, error) {
	records, err := e.records()
	if err != nil {
		return 0, err
	}

	switch format {
	case FormatYAML:
		return len(records), e.writeYAML(w, records)
	case FormatParquet:
		return len(records), writeParquet(w, records)
	default:
		return 0, fmt.Errorf("unknown export format %q", format)
	}
}

// WriteFile writes the export to path through a temp file in the same directory.
func (e *Exporter) WriteFile(path string, format Format) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := e.Write(tmp, format)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("renaming export: %w", err)
	}
	return n, nil
}

func (e *Exporter) records() ([]Record, error) {
	var out []Record
	err := e.src.Each(func(r *model.CatalogRecord) error {
		out = append(out, Record{
			ID:          r.ID,
			Name:        r.Name,
			Source:      r.SourcePath,
			Destination: r.DestinationPath,
			Timestamp:   r.Timestamp,
			TakenAt:     r.Time().In(e.loc).Format(time.RFC3339),
			Fingerprint: r.Fingerprint,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return out, nil
}

func (e *Exporter) writeYAML(w io.Writer, records []Record) error {
	runs, err := e.src.ListRuns(MaxRuns)
	if err != nil {
		return fmt.Errorf("reading runs: %w", err)
	}

	doc := Document{
		GeneratedAt: e.now().In(e.loc).Format(time.RFC3339),
		RecordCount: len(records),
		Records:     records,
	}
	if doc.Records == nil {
		doc.Records = []Record{}
	}
	for _, r := range runs {
		row := Run{
			ID:               r.ID,
			Operation:        r.Operation,
			Parameters:       r.Parameters,
			Status:           r.Status,
			StartedAt:        r.StartedAt.In(e.loc).Format(time.RFC3339),
			Copied:           r.Copied,
			Replaced:         r.Replaced,
			SkippedDuplicate: r.SkippedDuplicate,
			SkippedInferior:  r.SkippedInferior,
			SkippedDerived:   r.SkippedDerived,
			Failed:           r.Failed,
		}
		if r.FinishedAt != nil {
			row.FinishedAt = r.FinishedAt.In(e.loc).Format(time.RFC3339)
		}
		doc.Runs = append(doc.Runs, row)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

// writeParquet writes records only; runs are not tabular alongside them.
func writeParquet(w io.Writer, records []Record) error {
	pw := parquet.NewGenericWriter[Record](w)
	if len(records) > 0 {
		if _, err := pw.Write(records); err != nil {
			return fmt.Errorf("writing parquet rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("finishing parquet file: %w", err)
	}
	return nil
}
