package modelfactory

import (
	"context"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql" // "mysql" driver
	_ "github.com/jackc/pgx/v5/stdlib" // "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"               // "postgres" driver
	_ "github.com/microsoft/go-mssqldb" // "sqlserver" driver
	_ "modernc.org/sqlite"              // "sqlite" driver

	"github.com/modelfactory/modelfactory/ddl"
	"github.com/modelfactory/modelfactory/ddl/sqlite"
)

var _ Executor = (*DB)(nil)

// DB is an [Executor] backed by a database/sql connection pool, plus the
// record helpers that need both SQL generation and a connection.
type DB struct {
	// SQL is the underlying pool. It can be used directly for anything
	// modelfactory does not cover, such as transactions.
	SQL       *sqlx.DB
	Generator ddl.Generator
	// Schema is used to qualify record tables and for introspection. Empty
	// means the connection's default schema.
	Schema string
	Logger Logger

	mu     sync.Mutex
	tables map[string]*TableInfo
}

// New wraps an open connection pool. The generator must match the engine
// the pool is connected to.
func New(db *sqlx.DB, generator ddl.Generator) *DB {
	return &DB{SQL: db, Generator: generator, tables: map[string]*TableInfo{}}
}

// Open connects to the database described by profile. Like [sql.Open] it
// does not check that the database is reachable; call [DB.Ping] for that.
func Open(profile Profile) (*DB, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	generator, err := NewGenerator(profile.Engine)
	if err != nil {
		return nil, err
	}
	dsn, err := profile.DSN()
	if err != nil {
		return nil, err
	}
	driver, err := profile.DriverName()
	if err != nil {
		return nil, err
	}
	pool, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", profile.ID(), err)
	}
	if generator.Engine() == sqlite.Engine && profile.Database == ":memory:" {
		// each connection would be a separate database
		pool.SetMaxOpenConns(1)
	}
	db := New(pool, generator)
	db.Schema = profile.Schema
	return db, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.SQL.Close()
}

// Migrator returns a [Migrator] that uses this database and its generator.
func (db *DB) Migrator() *Migrator {
	m := NewMigrator(db.Generator, db)
	m.Logger = db.Logger
	return m
}

func (db *DB) Execute(ctx context.Context, query string, args ...any) error {
	if _, err := db.SQL.ExecContext(ctx, query, args...); err != nil {
		return db.fail(ctx, query, err)
	}
	return nil
}

// Query returns every row of the result, with the values as the driver
// returned them.
func (db *DB) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := db.SQL.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, db.fail(ctx, query, err)
	}
	defer rows.Close()
	var result []Row
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, db.fail(ctx, query, err)
		}
		result = append(result, Row(values))
	}
	if err := rows.Err(); err != nil {
		return nil, db.fail(ctx, query, err)
	}
	return result, nil
}

func (db *DB) Count(ctx context.Context, query string, args ...any) (int64, error) {
	var count int64
	if err := db.SQL.QueryRowxContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, db.fail(ctx, query, err)
	}
	return count, nil
}

func (db *DB) fail(ctx context.Context, query string, err error) error {
	execErr := &ExecutionError{SQL: query, Err: err}
	logTo(ctx, db.Logger, LogLevelDebug, "query failed", append(execErr.Fields(), LogField{"error", err})...)
	return execErr
}

// selectInto scans every row into dest, a pointer to a slice of structs with
// `db` tags.
func (db *DB) selectInto(ctx context.Context, dest any, query string, args ...any) error {
	if err := db.SQL.SelectContext(ctx, dest, query, args...); err != nil {
		return db.fail(ctx, query, err)
	}
	return nil
}
