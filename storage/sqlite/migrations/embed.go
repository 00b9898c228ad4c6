package migrations

import "embed"

// FS holds the tournament schema.
//
//go:embed *.sql
var FS embed.FS
