// Package db holds the SQL migrations, embedded so the binary can migrate
// without the source tree.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that goose reads.
const MigrationsDir = "migrations"
