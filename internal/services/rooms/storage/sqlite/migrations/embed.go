// Package migrations embeds the rooms schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
