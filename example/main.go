package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"

	"github.com/modelfactory/modelfactory"
	"github.com/modelfactory/modelfactory/ddl"
	"github.com/modelfactory/modelfactory/statement"
)

// This is a small photo catalogue. Like any application using modelfactory,
// it starts by connecting to the database and migrating it; if that fails it
// exits. Then it saves some records and reads them back.
//
// The connection comes from the PHOTOS_PROFILE environment variable, a JSON
// profile such as {"engine":"postgres","host":"localhost","database":"photos"}.
// Without it the catalogue is a SQLite file in the current directory.
func main() {
	ctx := context.Background()
	logger := log.NewWithOptions(os.Stdout, log.Options{Formatter: log.TextFormatter})

	profile := modelfactory.Profile{Engine: "sqlite", Database: "photos.db"}
	if raw := os.Getenv("PHOTOS_PROFILE"); raw != "" {
		var err error
		if profile, err = modelfactory.ParseProfile([]byte(raw)); err != nil {
			logger.Fatal("bad profile", "err", err)
		}
	}
	logger.Info("connecting to the database", "profile", profile.ID())
	db, err := modelfactory.Open(profile)
	if err != nil {
		logger.Fatal("connect", "err", err)
	}
	defer db.Close()
	db.Logger = logAdapter{logger}

	logger.Info("migrating")
	if err := catalogue(db.Migrator()).Migrate(ctx); err != nil {
		logger.Fatal("migrate", "err", err)
	}

	for _, img := range []Image{{PhotoYear: 2019, Place: "Lisbon"}, {PhotoYear: 2023, Place: "Hong Kong"}} {
		if err := db.Save(ctx, img); err != nil {
			logger.Fatal("save", "err", err)
		}
	}
	images, err := modelfactory.FetchAll[Image](ctx, db, statement.Query{OrderBy: `"photoYear" DESC`, Limit: 10})
	if err != nil {
		logger.Fatal("fetch", "err", err)
	}
	for _, img := range images {
		logger.Info("image", "id", img.ID, "year", img.PhotoYear, "place", img.Place)
	}
}

// Image has a serial id, which modelfactory finds by inspecting the table,
// so it does not declare its keys.
type Image struct {
	ID        int64  `db:"id"`
	PhotoYear int64  `db:"photoYear"`
	Place     string `db:"place"`
}

func (Image) TableName() string { return "Image" }

func (i Image) ColumnValues() []statement.ColumnValue {
	return []statement.ColumnValue{
		{Name: "id", Value: i.ID},
		{Name: "photoYear", Value: i.PhotoYear},
		{Name: "place", Value: i.Place},
	}
}

// catalogue registers the schema versions of the catalogue. Versions are
// never edited once released; changes go in a new version.
func catalogue(m *modelfactory.Migrator) *modelfactory.Migrator {
	return m.Version("v1", func(ctx context.Context, db *modelfactory.Change) error {
		return db.Create(ctx, "Image", func(t *ddl.TableDefinition) {
			t.Column("id", ddl.Serial).PrimaryKey()
			t.Column("photoYear", ddl.Integer).Defaults(0)
		})
	}).Version("v2", func(ctx context.Context, db *modelfactory.Change) error {
		return db.Alter(ctx, "Image", func(t *ddl.TableDefinition) {
			t.Column("place", ddl.Text).NotNull().Defaults("")
		})
	})
}

// modelfactory logs through its own small interface; this adapts the charm
// logger to it so that the migration logs show up on startup.
type logAdapter struct {
	*log.Logger
}

func (l logAdapter) Log(
	_ context.Context,
	level modelfactory.LogLevel,
	msg string,
	fields ...modelfactory.LogField,
) {
	args := make([]any, 0, 2*len(fields))
	for _, field := range fields {
		args = append(args, field.Key, field.Value)
	}
	switch level {
	case modelfactory.LogLevelDebug:
		l.Logger.Debug(msg, args...)
	case modelfactory.LogLevelInfo:
		l.Logger.Info(msg, args...)
	case modelfactory.LogLevelError:
		l.Logger.Error(msg, args...)
	case modelfactory.LogLevelWarning:
		l.Logger.Warn(msg, args...)
	}
}
