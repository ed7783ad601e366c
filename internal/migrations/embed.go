package migrations

import "embed"

// FS holds the per-dialect migration directories. go:embed cannot reach
// parent directories, so the SQL lives next to this file.
//
//go:embed *
var FS embed.FS
