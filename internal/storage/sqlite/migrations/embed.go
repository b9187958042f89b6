package migrations

import "embed"

// FS contains embedded SQLite migrations for dashboard storage.
//
//go:embed *.sql
var FS embed.FS
