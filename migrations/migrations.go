// Package migrations embeds the SQL migrations owned by the search service.
// The materials catalog itself belongs to the catalog service and is only read.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
