// Package migrations embeds the schema for every supported SQL dialect.
// Each dialect has its own directory of goose migrations.
package migrations

import "embed"

//go:embed mysql/*.sql postgres/*.sql sqlite/*.sql
var FS embed.FS
