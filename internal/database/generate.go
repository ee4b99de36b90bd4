package database

// schema.sql mirrors the migrated catalog schema. Regenerate after adding a migration:
//   go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/dump_schema.go"
