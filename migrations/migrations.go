// Package migrations embeds the PostgreSQL schema of the content repository.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
