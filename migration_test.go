package modelfactory

import (
	"testing"
	"testing/fstest"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestIDFromFilename(t *testing.T) {
	t.Parallel()
	check.Equal(t, "0001_initial", IDFromFilename("0001_initial.sql"))
	check.Equal(t, "0001_initial.up", IDFromFilename("0001_initial.up.sql"))
	check.Equal(t, "0001_initial", IDFromFilename("0001_initial"))
}

func TestSortByID(t *testing.T) {
	t.Parallel()

	t.Run("simple example", testcase( //nolint:paralleltest // it is parallel
		[]string{
			"0002_followup",
			"0001_initial",
		},
		[]string{
			"0001_initial",
			"0002_followup",
		},
	))
	t.Run("lexicographical ordering", testcase( //nolint:paralleltest // it is parallel
		[]string{
			"1_one",
			"0001_one",
			"01_one",
			"001_one",
		},
		[]string{
			"0001_one",
			"001_one",
			"01_one",
			"1_one",
		},
	))
	t.Run("more complicated", testcase( //nolint:paralleltest // it is parallel
		[]string{
			"0001_initial",
			"002_garbage",
			"03_something",
			"0002_followup",
			"0003_whatever",
		},
		[]string{
			"0001_initial",
			"0002_followup",
			"0003_whatever",
			"002_garbage",
			"03_something",
		},
	))
}

// testcase builds a test case for SortByID:
//   - initial contains the ids of some migrations in their original order.
//   - expected contains the ids of the same migrations in their expected sorted order.
//
// the testcase will construct the slice of SQLMigration, sort it, and then check
// to make sure the result is in the expected ID order.
func testcase(initial, expected []string) func(*testing.T) {
	return func(t *testing.T) {
		t.Parallel()
		migrations := make([]SQLMigration, 0, len(initial))
		for _, id := range initial {
			migrations = append(migrations, SQLMigration{ID: id, SQL: "-- not implemented"})
		}
		SortByID(migrations)
		check.Equal(t, expected, getIDs(migrations))
	}
}

func getIDs(migrations []SQLMigration) []string {
	ids := make([]string, 0, len(migrations))
	for _, m := range migrations {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestLoadSQL(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"migrations/0002_followup.sql": {Data: []byte("ALTER TABLE a ADD COLUMN b text;")},
		"migrations/0001_initial.sql":  {Data: []byte("CREATE TABLE a (id int);")},
		"migrations/README.md":         {Data: []byte("not a migration")},
	}
	migrations, err := LoadSQL(fsys)
	assert.Nil(t, err)
	check.Equal(t, []SQLMigration{
		{ID: "0001_initial", SQL: "CREATE TABLE a (id int);"},
		{ID: "0002_followup", SQL: "ALTER TABLE a ADD COLUMN b text;"},
	}, migrations)
}
