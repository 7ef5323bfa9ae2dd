// Package migrations embeds the SQL schema migrations so the binary can
// apply them without a migrations directory on disk.
package migrations

import "embed"

// FS holds every versioned SQL migration. Hand it to goose.SetBaseFS and
// run commands against the "." directory.
//
//go:embed *.sql
var FS embed.FS
