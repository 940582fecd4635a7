// Package modelfactory persists records and evolves schema on top of
// database/sql.
//
// Schema changes are registered as versions on a [Migrator]. Each version is
// a Go function that describes tables, sequences and triggers through a
// [Change]; the engine-specific SQL comes from a [ddl.Generator] picked with
// [NewGenerator]. Versions run once, in the order they were registered, and
// every applied version is recorded in a version log table.
//
// Records implement [Record] and are written with [DB.Save], which probes for
// an existing row by primary key and then inserts or updates.
//
// Migrate does not lock. If more than one process may migrate the same
// database at the same time, wrap the call with [DB.WithLock].
package modelfactory

import (
	"context"
	"strings"

	"github.com/modelfactory/modelfactory/ddl"
	"github.com/modelfactory/modelfactory/ddl/mssql"
	"github.com/modelfactory/modelfactory/ddl/mysql"
	"github.com/modelfactory/modelfactory/ddl/postgres"
	"github.com/modelfactory/modelfactory/ddl/sqlite"
)

// Row is one row of a query result, in column order.
type Row []any

// Executor runs SQL. [DB] is the implementation backed by a real database;
// the migrator and the record helpers only depend on this interface.
type Executor interface {
	Execute(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	// Count runs a query returning a single integer. A query returning no
	// rows is an error, never 0.
	Count(ctx context.Context, query string, args ...any) (int64, error)
}

// Engine returns the canonical name of a supported engine, accepting common
// aliases in any case: "postgres", "sqlite3", "mssql" and so on.
func Engine(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgresql", "postgres", "pg", "pgx":
		return postgres.Engine, nil
	case "sqlite", "sqlite3":
		return sqlite.Engine, nil
	case "mysql", "mariadb":
		return mysql.Engine, nil
	case "sqlserver", "mssql":
		return mssql.Engine, nil
	default:
		return "", &ConfigurationError{Setting: "engine", Value: name, Err: ErrUnsupportedEngine}
	}
}

// NewGenerator returns a new generator for the named engine. See [Engine] for
// the accepted names.
func NewGenerator(engine string) (ddl.Generator, error) {
	canonical, err := Engine(engine)
	if err != nil {
		return nil, err
	}
	switch canonical {
	case postgres.Engine:
		return postgres.New(), nil
	case sqlite.Engine:
		return sqlite.New(), nil
	case mysql.Engine:
		return mysql.New(), nil
	default:
		return mssql.New(), nil
	}
}
