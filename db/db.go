// Package db embeds the SQL migrations of the database schema.
package db

import "embed"

// MigrationFS holds the golang-migrate files under migration/.
//
//go:embed migration/*.sql
var MigrationFS embed.FS

// MigrationDir is the directory of MigrationFS containing the migrations.
const MigrationDir = "migration"
