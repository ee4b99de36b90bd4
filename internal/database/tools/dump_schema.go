//go:build ignore

// dump_schema applies every migration to a scratch catalog and writes the
// resulting DDL to internal/database/schema.sql for reference.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"photocrawl/internal/database"
	"photocrawl/internal/database/migrations"
)

func main() {
	db, err := database.OpenConnection(":memory:", 0)
	if err != nil {
		fail("opening catalog", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		fail("migrating", err)
	}

	ddl, err := readDDL(db)
	if err != nil {
		fail("reading schema", err)
	}

	out := filepath.Join("internal", "database", "schema.sql")
	if err := os.WriteFile(out, []byte(ddl), 0o644); err != nil {
		fail("writing schema", err)
	}
	fmt.Printf("wrote %s\n", out)
}

func readDDL(db *sql.DB) (string, error) {
	rows, err := db.Query(`
		SELECT sql FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY CASE type WHEN 'table' THEN 1 ELSE 2 END, name`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var b strings.Builder
	b.WriteString("-- Generated from internal/database/migrations/files by go generate. Do not edit.\n\n")
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", err
		}
		b.WriteString(stmt)
		b.WriteString(";\n\n")
	}
	return b.String(), rows.Err()
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
