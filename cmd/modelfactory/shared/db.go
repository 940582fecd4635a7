package shared

import (
	"fmt"
	"os"

	"github.com/modelfactory/modelfactory"
)

// OpenDB connects with the resolved profile. Its generator records versions
// in the configured version table and it logs through logger.
func OpenDB(logger modelfactory.Logger) (*modelfactory.DB, error) {
	engine := State.Engine()
	if err := Validate(engine); err != nil {
		return nil, err
	}
	db, err := modelfactory.Open(State.Profile())
	if err != nil {
		return nil, err
	}
	db.Logger = logger
	db.Generator.SetVersionTable(State.VersionTable().Value())
	return db, nil
}

// NewMigrator registers every .sql file of the migrations directory as a
// version, in filename order. Without a migrations directory the migrator
// has no versions, which is enough to read and edit the version log.
func NewMigrator(db *modelfactory.DB) (*modelfactory.Migrator, error) {
	m := db.Migrator()
	migrations := State.Migrations()
	if !migrations.IsSet() {
		return m, nil
	}
	loaded, err := modelfactory.LoadSQL(os.DirFS(migrations.Value()))
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return m.SQLVersions(loaded...), nil
}
