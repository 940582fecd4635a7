// Package migrations holds SQL migrations used in tests. They are written in
// the subset of SQL that SQLite and PostgreSQL share.
package migrations

import "embed"

// FS contains the migrations at its root.
//
//go:embed *.sql
var FS embed.FS
