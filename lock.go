package modelfactory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/modelfactory/modelfactory/ddl"
	"github.com/modelfactory/modelfactory/ddl/postgres"
	"github.com/modelfactory/modelfactory/internal/sessionlock"
)

// WithLock holds a PostgreSQL session advisory lock named name while cb runs,
// waiting for as long as ctx allows if another session holds it. Use it to
// keep concurrent deploys from migrating at the same time:
//
//	err := db.WithLock(ctx, "migrations", func(ctx context.Context) error {
//		return m.Migrate(ctx)
//	})
//
// cb can use db as usual; the lock belongs to a separate connection. Other
// engines return [ddl.ErrUnsupported].
func (db *DB) WithLock(ctx context.Context, name string, cb func(ctx context.Context) error) error {
	if engine := db.Generator.Engine(); engine != postgres.Engine {
		return fmt.Errorf("%w: advisory locks on %s", ddl.ErrUnsupported, engine)
	}
	logTo(ctx, db.Logger, LogLevelDebug, "acquiring lock", LogField{"lock", name})
	return sessionlock.With(ctx, db.SQL.DB, name, func(_ *sql.Conn) error {
		logTo(ctx, db.Logger, LogLevelDebug, "acquired lock", LogField{"lock", name})
		return cb(ctx)
	})
}
