// Package schemas embeds the MySQL migrations of the turn log.
package schemas

import "embed"

// MigrationsDirectory is the root of the migration files inside Migrations.
const MigrationsDirectory = "migrations"

// Migrations holds <version>_<title>.up.sql and .down.sql pairs of the turn log schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS
