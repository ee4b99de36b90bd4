package library

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// coreDataEpoch is 2001-01-01T00:00:00Z in Unix seconds.
const coreDataEpoch = 978307200

// asset is one non-trashed row of the Photos asset table.
type asset struct {
	Filename string    // name inside originals/, usually a UUID
	UUID     string    // ZUUID; names the edited renders. May be empty
	Original string    // user-visible import name; may be empty
	Created  time.Time // zero when the row has no creation date
}

// RelPath is the asset's location relative to the library root.
func (a asset) RelPath() string {
	first := []rune(a.Filename)[:1]
	return filepath.Join("originals", string(first), a.Filename)
}

// DisplayName prefers the original import name.
func (a asset) DisplayName() string {
	if a.Original != "" {
		return a.Original
	}
	return a.Filename
}

// editedPath finds the full-size edited render of the asset under lib,
// resources/renders/<first char of uuid>/<uuid>_1_201_a.<ext>. Empty if none exists.
func (a asset) editedPath(lib string) string {
	if a.UUID == "" {
		return ""
	}
	dir := filepath.Join(lib, "resources", "renders", a.UUID[:1])
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	prefix := a.UUID + "_1_201_a."
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), prefix) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

// editedName keeps the display name's stem with the render's extension.
func editedName(display, render string) string {
	return strings.TrimSuffix(display, filepath.Ext(display)) + filepath.Ext(render)
}

// assetTables lists the asset table names across Photos versions, newest first.
var assetTables = []string{"ZGENERICASSET", "ZASSET"}

// buildAssetQuery selects filename, creation date, uuid and original name from
// table, joining only the name sources present in this schema version.
// ZADDITIONALASSETATTRIBUTES covers local imports; ZCLOUDMASTER covers iCloud masters.
func buildAssetQuery(db *sql.DB, table string) (string, error) {
	uuidCol := "NULL"
	if ok, err := hasColumn(db, table, "ZUUID"); err != nil {
		return "", err
	} else if ok {
		uuidCol = "a.ZUUID"
	}

	var joins, names []string
	if ok, err := hasColumn(db, "ZADDITIONALASSETATTRIBUTES", "ZORIGINALFILENAME"); err != nil {
		return "", err
	} else if ok {
		joins = append(joins, "LEFT JOIN ZADDITIONALASSETATTRIBUTES attr ON attr.ZASSET = a.Z_PK")
		names = append(names, "attr.ZORIGINALFILENAME")
	}
	hasMaster, err := hasColumn(db, table, "ZMASTER")
	if err != nil {
		return "", err
	}
	if ok, err := hasColumn(db, "ZCLOUDMASTER", "ZORIGINALFILENAME"); err != nil {
		return "", err
	} else if ok && hasMaster {
		joins = append(joins, "LEFT JOIN ZCLOUDMASTER m ON a.ZMASTER = m.Z_PK")
		names = append(names, "m.ZORIGINALFILENAME")
	}
	nameCol := "NULL"
	switch len(names) {
	case 0:
	case 1:
		nameCol = names[0]
	default:
		nameCol = "COALESCE(" + strings.Join(names, ", ") + ")"
	}

	trashed := ""
	if ok, err := hasColumn(db, table, "ZTRASHEDSTATE"); err != nil {
		return "", err
	} else if ok {
		trashed = "\n  AND (a.ZTRASHEDSTATE IS NULL OR a.ZTRASHEDSTATE = 0)"
	}

	return fmt.Sprintf(`SELECT a.ZFILENAME, a.ZDATECREATED, %s, %s
FROM %s a
%s
WHERE a.ZFILENAME IS NOT NULL AND a.ZFILENAME != ''%s
ORDER BY a.Z_PK`, uuidCol, nameCol, table, strings.Join(joins, "\n"), trashed), nil
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT count(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspecting %s: %w", table, err)
	}
	return n > 0, nil
}

// openPhotosDB opens Photos.sqlite read-only. immutable=1 lets the read
// proceed while Photos.app holds its own locks.
func openPhotosDB(path string) (*sql.DB, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	u := url.URL{Scheme: "file", Path: abs, RawQuery: "mode=ro&immutable=1"}
	db, err := sql.Open("sqlite3", u.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// readAssets returns every non-trashed asset, deduplicated by file name.
func readAssets(db *sql.DB) ([]asset, error) {
	table, err := findAssetTable(db)
	if err != nil {
		return nil, err
	}

	query, err := buildAssetQuery(db, table)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var out []asset
	for rows.Next() {
		var (
			name     string
			created  sql.NullFloat64
			uuid     sql.NullString
			original sql.NullString
		)
		if err := rows.Scan(&name, &created, &uuid, &original); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		a := asset{Filename: name, UUID: uuid.String, Original: original.String}
		if created.Valid {
			sec := created.Float64 + coreDataEpoch
			a.Created = time.Unix(int64(sec), 0).UTC()
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	return out, nil
}

func findAssetTable(db *sql.DB) (string, error) {
	for _, table := range assetTables {
		var n int
		err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		if err != nil {
			return "", fmt.Errorf("inspecting schema: %w", err)
		}
		if n > 0 {
			return table, nil
		}
	}
	return "", fmt.Errorf("no asset table (tried %s)", strings.Join(assetTables, ", "))
}
