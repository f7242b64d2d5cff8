// Package migrations embeds the goose SQL migration files.
package migrations

import "embed"

// FS holds the embedded migration files applied at startup.
//
//go:embed *.sql
var FS embed.FS
