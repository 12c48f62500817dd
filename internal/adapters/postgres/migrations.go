package postgres

import "embed"

// Migrations holds the schema files consumed by golang-migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS
