package modelfactory_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/modelfactory/modelfactory"
	"github.com/modelfactory/modelfactory/ddl"
	"github.com/modelfactory/modelfactory/ddl/postgres"
	"github.com/modelfactory/modelfactory/internal/migrations"
	"github.com/modelfactory/modelfactory/internal/withdb"
	"github.com/modelfactory/modelfactory/statement"
)

// image has no declared keys; they are inferred from its serial id column.
type image struct {
	ID        int64  `db:"id"`
	PhotoYear int64  `db:"photoYear"`
	Place     string `db:"place"`
}

func (image) TableName() string { return "Image" }

func (i image) ColumnValues() []statement.ColumnValue {
	return []statement.ColumnValue{
		{Name: "id", Value: i.ID},
		{Name: "photoYear", Value: i.PhotoYear},
		{Name: "place", Value: i.Place},
	}
}

// tag has a natural key, declared along with its (empty) autofill columns.
type tag struct {
	Name  string `db:"name"`
	Count int64  `db:"uses"`
}

func (tag) TableName() string         { return "tag" }
func (tag) PrimaryKeys() []string     { return []string{"name"} }
func (tag) AutofillColumns() []string { return nil }

func (t tag) ColumnValues() []statement.ColumnValue {
	return []statement.ColumnValue{
		{Name: "name", Value: t.Name},
		{Name: "uses", Value: t.Count},
	}
}

func imageSchema(m *modelfactory.Migrator) *modelfactory.Migrator {
	return m.Version("v1", func(ctx context.Context, db *modelfactory.Change) error {
		return db.Create(ctx, "Image", func(t *ddl.TableDefinition) {
			t.Column("id", ddl.Serial).PrimaryKey()
			t.Column("photoYear", ddl.Integer).Defaults(0)
			t.Column("place", ddl.Text).NotNull().Defaults("")
		})
	}).Version("v2", func(ctx context.Context, db *modelfactory.Change) error {
		return db.Create(ctx, "tag", func(t *ddl.TableDefinition) {
			t.Column("name", ddl.Varchar).Length(64).PrimaryKey()
			t.Column("uses", ddl.Integer).NotNull().Defaults(0)
		})
	})
}

func newSQLite(t *testing.T) *modelfactory.DB {
	t.Helper()
	db, err := modelfactory.Open(modelfactory.Profile{
		Engine:   "sqlite",
		Database: filepath.Join(t.TempDir(), "test.db"),
	})
	assert.Nil(t, err)
	db.Logger = modelfactory.NewTestLogger(t)
	t.Cleanup(func() { check.Nil(t, db.Close()) })
	return db
}

// withPostgres runs cb against a new database, skipping the test when no
// local server is running.
func withPostgres(t *testing.T, cb func(db *modelfactory.DB) error) {
	t.Helper()
	err := withdb.WithDB(context.Background(), "pgx", func(conn *sql.DB) error {
		db := modelfactory.New(sqlx.NewDb(conn, "pgx"), postgres.New())
		db.Logger = modelfactory.NewTestLogger(t)
		return cb(db)
	})
	if errors.Is(err, withdb.ErrUnavailable) {
		t.Skip(err)
	}
	assert.Nil(t, err)
}

// testImageScenario is run against every available engine.
func testImageScenario(t *testing.T, db *modelfactory.DB) {
	t.Helper()
	ctx := context.Background()
	m := imageSchema(db.Migrator())
	assert.Nil(t, m.Migrate(ctx))

	applied, err := m.Applied(ctx)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(applied))
	check.Equal(t, "v1", applied[0].Version)
	check.Equal(t, "v2", applied[1].Version)

	assert.Nil(t, db.Save(ctx, image{PhotoYear: 2023}))
	count, err := db.CountRecords(ctx, "Image", statement.Query{})
	assert.Nil(t, err)
	check.Equal(t, int64(1), count)

	// Migrating again neither fails nor recreates the table.
	assert.Nil(t, m.Migrate(ctx))
	count, err = db.CountRecords(ctx, "Image", statement.Query{})
	assert.Nil(t, err)
	check.Equal(t, int64(1), count)

	saved, err := modelfactory.FetchOne[image](ctx, db, statement.Query{
		Filter: []statement.ColumnValue{{Name: "photoYear", Value: 2023}},
	})
	assert.Nil(t, err)
	check.Equal(t, int64(1), saved.ID)
	check.Equal(t, "", saved.Place)

	// Saving a record whose key exists updates it.
	saved.Place = "Hong Kong"
	assert.Nil(t, db.Save(ctx, saved))
	all, err := modelfactory.FetchAll[image](ctx, db, statement.Query{OrderBy: `"id"`})
	assert.Nil(t, err)
	check.Equal(t, []image{{ID: 1, PhotoYear: 2023, Place: "Hong Kong"}}, all)

	// A natural key is inserted as given, then updated.
	assert.Nil(t, db.Save(ctx, tag{Name: "harbour", Count: 1}))
	assert.Nil(t, db.Save(ctx, tag{Name: "harbour", Count: 2}))
	tags, err := modelfactory.FetchAll[tag](ctx, db, statement.Query{})
	assert.Nil(t, err)
	check.Equal(t, []tag{{Name: "harbour", Count: 2}}, tags)

	assert.Nil(t, db.Delete(ctx, saved))
	_, err = modelfactory.FetchOne[image](ctx, db, statement.Query{})
	check.True(t, errors.Is(err, modelfactory.ErrNoRecord))
}

func TestImageScenarioSQLite(t *testing.T) {
	t.Parallel()
	testImageScenario(t, newSQLite(t))
}

func TestImageScenarioPostgres(t *testing.T) {
	t.Parallel()
	withPostgres(t, func(db *modelfactory.DB) error {
		testImageScenario(t, db)
		return nil
	})
}

func TestAppliedKeepsApplicationOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newSQLite(t)
	noop := func(context.Context, *modelfactory.Change) error { return nil }
	m := db.Migrator().
		Version("v10", noop).
		Version("v2", noop).
		Version("b", noop).
		Version("a", noop)
	assert.Nil(t, m.Migrate(ctx))
	check.Equal(t, []string{"v10", "v2", "b", "a"}, appliedIDs(t, m))

	_, err := m.MarkUnapplied(ctx, "b")
	assert.Nil(t, err)
	// b keeps its registered position, so it is re-applied before 0.
	assert.Nil(t, m.Version("0", noop).Migrate(ctx))
	check.Equal(t, []string{"v10", "v2", "a", "b", "0"}, appliedIDs(t, m))

	removed, err := m.MarkAllUnapplied(ctx)
	assert.Nil(t, err)
	ids := make([]string, 0, len(removed))
	for _, v := range removed {
		ids = append(ids, v.Version)
	}
	check.Equal(t, []string{"v10", "v2", "a", "b", "0"}, ids)
}

func appliedIDs(t *testing.T, m *modelfactory.Migrator) []string {
	t.Helper()
	applied, err := m.Applied(context.Background())
	assert.Nil(t, err)
	ids := make([]string, 0, len(applied))
	for _, v := range applied {
		ids = append(ids, v.Version)
	}
	return ids
}

func TestDropBeforeCreateRecreatesTables(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newSQLite(t)
	assert.Nil(t, imageSchema(db.Migrator()).Migrate(ctx))
	assert.Nil(t, db.Save(ctx, image{PhotoYear: 2023}))

	m := imageSchema(db.Migrator()).CleanVersions(true).DropBeforeCreate(true)
	assert.Nil(t, m.Migrate(ctx))
	count, err := db.CountRecords(ctx, "Image", statement.Query{})
	assert.Nil(t, err)
	check.Equal(t, int64(0), count)
}

func TestQueryFailuresAreExecutionErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newSQLite(t)

	err := db.Execute(ctx, "CREATE TABLE broken (")
	var execErr *modelfactory.ExecutionError
	if check.True(t, errors.As(err, &execErr)) {
		check.Equal(t, "CREATE TABLE broken (", execErr.SQL)
		fields := map[string]any{}
		for _, f := range execErr.Fields() {
			fields[f.Key] = f.Value
		}
		check.Equal(t, "CREATE TABLE broken (", fields["sql"])
		_, hasCode := fields["sqlite_code"]
		check.True(t, hasCode)
	}

	_, err = db.Query(ctx, "SELECT * FROM missing")
	check.True(t, errors.As(err, &execErr))

	// A count that returns no row is an error, not zero.
	assert.Nil(t, db.Execute(ctx, "CREATE TABLE empty (n INTEGER)"))
	_, err = db.Count(ctx, "SELECT n FROM empty")
	check.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestQueryReturnsRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newSQLite(t)
	assert.Nil(t, db.Execute(ctx, "CREATE TABLE t (a INTEGER, b TEXT)"))
	assert.Nil(t, db.Execute(ctx, "INSERT INTO t (a, b) VALUES (?1, ?2), (?3, ?4)", 1, "one", 2, "two"))
	rows, err := db.Query(ctx, "SELECT a, b FROM t ORDER BY a")
	assert.Nil(t, err)
	check.Equal(t, []modelfactory.Row{
		{int64(1), "one"},
		{int64(2), "two"},
	}, rows)
}

func TestSaveWithoutKeysIsLogicError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newSQLite(t)
	assert.Nil(t, db.Execute(ctx, `CREATE TABLE "Image" ("photoYear" INTEGER, "id" INTEGER, "place" TEXT)`))
	err := db.Save(ctx, image{PhotoYear: 2023})
	var lerr *modelfactory.LogicError
	check.True(t, errors.As(err, &lerr))
	check.True(t, errors.Is(err, statement.ErrNoKeys))

	err = db.Save(ctx, tagless{})
	check.True(t, errors.As(err, &lerr))
	check.True(t, errors.Is(err, modelfactory.ErrUnknownTable))
}

type tagless struct{}

func (tagless) TableName() string                     { return "nowhere" }
func (tagless) ColumnValues() []statement.ColumnValue { return nil }

func TestWithLockIsPostgresOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	err := newSQLite(t).WithLock(ctx, "migrations", func(context.Context) error { return nil })
	check.True(t, errors.Is(err, ddl.ErrUnsupported))
}

func TestWithLockRunsCallback(t *testing.T) {
	t.Parallel()
	withPostgres(t, func(db *modelfactory.DB) error {
		ctx := context.Background()
		m := imageSchema(db.Migrator())
		assert.Nil(t, db.WithLock(ctx, "migrations", m.Migrate))
		plan, err := m.Plan(ctx)
		assert.Nil(t, err)
		check.Equal(t, 0, len(plan))
		return nil
	})
}

func TestSQLMigrationsAndTableInfos(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newSQLite(t)
	loaded, err := modelfactory.LoadSQL(migrations.FS)
	assert.Nil(t, err)
	m := db.Migrator().SQLVersions(loaded...)
	check.Equal(t, []string{"0001_images", "0002_tags"}, m.Versions())
	assert.Nil(t, m.Migrate(ctx))

	infos, err := db.TableInfos(ctx, "")
	assert.Nil(t, err)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	check.Equal(t, []string{"Image", ddl.DefaultVersionTable, "tag"}, names)

	// A lone INTEGER PRIMARY KEY is filled in by SQLite.
	images := infos[0]
	check.Equal(t, []string{"id"}, images.PrimaryKeys())
	check.Equal(t, []string{"id"}, images.AutofillColumns())
	id, ok := images.Column("id")
	if check.True(t, ok) {
		check.Equal(t, ddl.Serial, id.Type())
		check.True(t, id.IsSerial())
	}
	year, _ := images.Column("photoYear")
	check.True(t, year.HasDefault())
	check.True(t, year.Nullable())

	// A natural key is not inferred.
	check.Equal(t, 0, len(infos[2].PrimaryKeys()))

	assert.Nil(t, db.Save(ctx, image{PhotoYear: 1999}))

	// Descriptions are cached until forgotten.
	change := modelfactory.NewChange(db.Generator, db, db.Logger)
	assert.Nil(t, change.Alter(ctx, "Image", func(t *ddl.TableDefinition) {
		t.Column("rating", ddl.Integer)
	}))
	cached, err := db.TableInfo(ctx, "", "Image")
	assert.Nil(t, err)
	check.Equal(t, 3, len(cached.Columns))
	db.ForgetTableInfo()
	fresh, err := db.TableInfo(ctx, "", "Image")
	assert.Nil(t, err)
	check.Equal(t, []string{"id", "photoYear", "place", "rating"}, fresh.ColumnNames())
}
