// Package db embeds the SQL migrations, one directory per dialect.
package db

import "embed"

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var Migrations embed.FS
