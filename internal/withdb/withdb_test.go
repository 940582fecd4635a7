package withdb_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/modelfactory/modelfactory/internal/withdb"
)

func TestWithDB(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	err := withdb.WithDB(ctx, "pgx", func(db *sql.DB) error {
		_, err := db.Exec("select 1")
		return err
	})
	if errors.Is(err, withdb.ErrUnavailable) {
		t.Skip(err)
	}
	assert.Nil(t, err)
}

func TestWithSQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	err := withdb.WithSQLite(ctx, t.TempDir(), func(db *sql.DB, path string) error {
		check.True(t, strings.HasSuffix(path, ".db"))
		if _, err := db.ExecContext(ctx, "CREATE TABLE t (x INTEGER)"); err != nil {
			return err
		}
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM t").Scan(&count); err != nil {
			return err
		}
		check.Equal(t, 0, count)
		return nil
	})
	assert.Nil(t, err)
}

func TestRandomName(t *testing.T) {
	t.Parallel()
	a := withdb.RandomName("test")
	b := withdb.RandomName("test")
	check.NotEqual(t, a, b)
	check.True(t, strings.HasPrefix(a, "test_"))
	check.True(t, !strings.Contains(a, "-"))
}
