package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"photocrawl/internal/crawl"
	"photocrawl/internal/database/migrations"
	"photocrawl/internal/model"
)

// CatalogFileName is the catalog file inside the database directory.
const CatalogFileName = "myphotos.db"

// DefaultLockTimeout bounds how long a write waits for another process's lock.
const DefaultLockTimeout = 5 * time.Second

// Options configures a catalog.
type Options struct {
	// FingerprintVersion is the algorithm version of the running binary.
	// Records written under any other version are purged at open.
	FingerprintVersion int

	// LockTimeout is passed to SQLite as the busy timeout. Zero means DefaultLockTimeout.
	LockTimeout time.Duration

	// Logger receives the purge warning. Nil discards.
	Logger crawl.Logger
}

// SQLiteCatalog implements crawl.Catalog on a single SQLite file.
type SQLiteCatalog struct {
	db     *sql.DB
	path   string
	logger crawl.Logger

	// mu serializes writes. It is the only synchronization point in the catalog.
	mu sync.Mutex
}

var _ crawl.Catalog = (*SQLiteCatalog)(nil)

// OpenCatalog opens (creating if needed) <dir>/myphotos.db, applies migrations
// and reconciles the fingerprint version.
func OpenCatalog(dir string, opts Options) (*SQLiteCatalog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}
	return openCatalog(filepath.Join(dir, CatalogFileName), opts)
}

// OpenMemoryCatalog opens a private in-memory catalog. Used by tests and dry runs.
func OpenMemoryCatalog(opts Options) (*SQLiteCatalog, error) {
	return openCatalog(":memory:", opts)
}

func openCatalog(path string, opts Options) (*SQLiteCatalog, error) {
	db, err := OpenConnection(path, opts.LockTimeout)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog: %w: %w", crawl.ErrStorage, err)
	}

	c := NewSQLiteCatalogFromDB(db, path, opts.Logger)
	if err := c.reconcileFingerprintVersion(opts.FingerprintVersion); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewSQLiteCatalogFromDB wraps an existing, already migrated connection.
func NewSQLiteCatalogFromDB(db *sql.DB, path string, logger crawl.Logger) *SQLiteCatalog {
	if logger == nil {
		logger = crawl.NewNopLogger()
	}
	return &SQLiteCatalog{db: db, path: path, logger: logger}
}

// OpenConnection opens a SQLite connection limited to one open connection.
// path can be a file path or ":memory:".
func OpenConnection(path string, lockTimeout time.Duration) (*sql.DB, error) {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}

	dsn, err := catalogDSN(path, lockTimeout)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w: %w", crawl.ErrStorage, err)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w: %w", crawl.ErrStorage, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening catalog %s: %w: %w", path, crawl.ErrStorage, err)
	}
	return db, nil
}

// catalogDSN builds a file: URI for path so characters like ? and # stay in the file name.
func catalogDSN(path string, lockTimeout time.Duration) (string, error) {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.FormatInt(lockTimeout.Milliseconds(), 10))
	q.Set("_foreign_keys", "on")
	u := url.URL{Scheme: "file", RawQuery: q.Encode()}
	if path == ":memory:" {
		u.Opaque = path
		return u.String(), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u.Path = abs
	return u.String(), nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, crawl.ErrStorage, err)
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Photo records

const recordColumns = "id, name, source_path, filename, timestamp, hash, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.CatalogRecord, error) {
	var r model.CatalogRecord
	if err := row.Scan(&r.ID, &r.Name, &r.SourcePath, &r.DestinationPath, &r.Timestamp, &r.Fingerprint, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *SQLiteCatalog) findOne(op, query string, arg any) (*model.CatalogRecord, error) {
	rec, err := scanRecord(c.db.QueryRow(query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, storageError(op, err)
	}
	return rec, nil
}

func (c *SQLiteCatalog) FindBySourcePath(path string) (*model.CatalogRecord, error) {
	return c.findOne("finding record by source path",
		"SELECT "+recordColumns+" FROM photos WHERE source_path = ? ORDER BY id DESC LIMIT 1", path)
}

func (c *SQLiteCatalog) FindByFingerprint(fingerprint string) (*model.CatalogRecord, error) {
	return c.findOne("finding record by fingerprint",
		"SELECT "+recordColumns+" FROM photos WHERE hash = ?", fingerprint)
}

func (c *SQLiteCatalog) Insert(record *model.CatalogRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.Exec(
		"INSERT INTO photos (name, source_path, filename, timestamp, hash, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		record.Name, record.SourcePath, record.DestinationPath, record.Timestamp, record.Fingerprint, record.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("inserting record %s: %w", record.Fingerprint, crawl.ErrIntegrity)
		}
		return storageError("inserting record", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storageError("reading inserted id", err)
	}
	record.ID = id
	return nil
}

func (c *SQLiteCatalog) Relink(fingerprint, sourcePath, destinationPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.Exec(
		"UPDATE photos SET source_path = ?, filename = ?, name = ? WHERE hash = ?",
		sourcePath, destinationPath, filepath.Base(destinationPath), fingerprint,
	)
	if err != nil {
		return storageError("relinking record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageError("relinking record", err)
	}
	if n == 0 {
		return fmt.Errorf("relinking record: no record with fingerprint %s", fingerprint)
	}
	return nil
}

func (c *SQLiteCatalog) Count() (int64, error) {
	var n int64
	if err := c.db.QueryRow("SELECT COUNT(*) FROM photos").Scan(&n); err != nil {
		return 0, storageError("counting records", err)
	}
	return n, nil
}

// Each calls fn for every record in insertion order. Iteration stops at the first error.
func (c *SQLiteCatalog) Each(fn func(*model.CatalogRecord) error) error {
	rows, err := c.db.Query("SELECT " + recordColumns + " FROM photos ORDER BY id")
	if err != nil {
		return storageError("listing records", err)
	}
	defer rows.Close()

	// Records are buffered so fn may query the catalog on the single connection.
	var records []*model.CatalogRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return storageError("scanning record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return storageError("listing records", err)
	}
	rows.Close()

	for _, rec := range records {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the catalog file path (or ":memory:").
func (c *SQLiteCatalog) Path() string {
	return c.path
}

// CheckMigrations verifies the schema is up-to-date.
func (c *SQLiteCatalog) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(c.db)
}

// BackupTo writes a consistent copy of the catalog to destPath using VACUUM INTO.
func (c *SQLiteCatalog) BackupTo(destPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up catalog: %w", err)
	}
	return nil
}

// Close closes the connection.
func (c *SQLiteCatalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
