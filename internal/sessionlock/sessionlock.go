// sessionlock package provides support for application level distributed locks via advisory
// locks in PostgreSQL.
//
// - https://www.postgresql.org/docs/current/explicit-locking.html#ADVISORY-LOCKS
// - https://samu.space/distributed-locking-with-postgres-advisory-locks/
package sessionlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"
)

// IDPrefix is prepended to any given lock name when computing the integer lock
// ID, to help prevent collisions with other clients that may be acquiring their
// own locks.
const IDPrefix string = "modelfactory-"

// SpinWait is the amount of time that sessionlock will sleep between attempts
// to acquire an in-use session lock with `pg_try_advisory_lock`.
const SpinWait time.Duration = 100 * time.Millisecond

// ID consistently hashes a string to an integer that can be used with
// pg_advisory_lock() and pg_advisory_unlock(), which take a bigint.
func ID(name string) int64 {
	return int64(xxh3.HashString(IDPrefix + name))
}

// With will open a connection to the `db`, use that connection to acquire an
// advisory lock, then call your `cb`, then release the advisory lock.
//
// With will spin indefinitely using `pg_try_advisory_lock` to acquire the lock,
// giving up only if the lock is acquired or if the provided `ctx` expires.
func With(ctx context.Context, db *sql.DB, lockName string, cb func(*sql.Conn) error) (final error) {
	// A single *sql.Conn guarantees that lock() and unlock() happen in the
	// same session.
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("sessionlock(%s) failed to open conn: %w", lockName, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			final = errors.Join(final, fmt.Errorf("sessionlock(%s) failed to close conn: %w", lockName, err))
		}
	}()

	// Spin on `pg_try_advisory_lock` so that waiting does not run into the
	// `lock_timeout` or `statement_timeout` of the session.
	id := ID(lockName)
	for {
		var locked bool
		if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", id).Scan(&locked); err != nil {
			return fmt.Errorf("sessionlock(%s) failed to lock: %w", lockName, err)
		}
		if locked {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(SpinWait):
		}
	}

	defer func() {
		if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", id); err != nil {
			final = errors.Join(final, fmt.Errorf("sessionlock(%s) failed to unlock: %w", lockName, err))
		}
	}()
	return cb(conn)
}
