// Package migrations embeds the SQL schema migrations applied by
// database.NewDB at startup.
package migrations

import "embed"

// FS holds the embedded *.up.sql and *.down.sql files.
//
//go:embed *.sql
var FS embed.FS
