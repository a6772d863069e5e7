// Package migrations embeds the manifest schema migrations.
package migrations

import "embed"

// FS holds the versioned .up.sql/.down.sql pairs applied in order by
// the store on open.
//
//go:embed *.sql
var FS embed.FS
