package migrations

import "embed"

// FS holds one goose migration directory per SQL dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
