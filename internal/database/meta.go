package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const fingerprintVersionKey = "fingerprint_version"

// FingerprintVersion returns the stored fingerprint algorithm version, or 0 if none is recorded.
func (c *SQLiteCatalog) FingerprintVersion() (int, error) {
	v, ok, err := c.storedFingerprintVersion()
	if err != nil || !ok {
		return 0, err
	}
	return v, nil
}

func (c *SQLiteCatalog) storedFingerprintVersion() (int, bool, error) {
	var raw string
	err := c.db.QueryRow("SELECT value FROM catalog_meta WHERE key = ?", fingerprintVersionKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, storageError("reading fingerprint version", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// An unreadable version is treated like a stale one.
		return -1, true, nil
	}
	return v, true, nil
}

// reconcileFingerprintVersion purges every record when the stored version
// differs from want. Rows with no stored version are purged too; an empty
// catalog just gets the version written.
func (c *SQLiteCatalog) reconcileFingerprintVersion(want int) error {
	stored, ok, err := c.storedFingerprintVersion()
	if err != nil {
		return err
	}
	if ok && stored == want {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return storageError("starting version transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM photos")
	if err != nil {
		return storageError("purging records", err)
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return storageError("purging records", err)
	}

	_, err = tx.Exec(
		"INSERT INTO catalog_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		fingerprintVersionKey, strconv.Itoa(want),
	)
	if err != nil {
		return storageError("writing fingerprint version", err)
	}

	if err := tx.Commit(); err != nil {
		return storageError("committing version change", err)
	}

	if purged > 0 {
		c.logger.Warn("fingerprint algorithm changed, catalog purged",
			"stored_version", versionLabel(stored, ok),
			"version", want,
			"purged", purged,
		)
	}
	return nil
}

func versionLabel(v int, ok bool) string {
	if !ok {
		return "none"
	}
	return fmt.Sprint(v)
}
