package db

import "embed"

// MigrationFS embeds the SQL migrations for the Postgres session storage backend.
// Applied by cmd/migrate and by the storage integration tests.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
