// Package migrations embeds the SQL migrations for the grid database.
package migrations

import "embed"

// FS contains the numbered .up.sql files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
