// Package migrations embeds the schema migrations applied by cmd/migrate and DB_AUTO_MIGRATE.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
