package modelfactory

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// SQLMigration is a version written as a plain SQL file rather than as a Go
// function. Its SQL is not portable between engines.
type SQLMigration struct {
	ID  string // the filename of the migration, without the .sql extension
	SQL string // the contents of the migration file
}

// IDFromFilename removes directory paths and extensions from the filename to
// return just the filename (no extension).
//
// Examples:
//
//	"0001_initial" == IDFromFilename("0001_initial.sql")
//	"0002_whatever.up" == IDFromFilename("0002_whatever.up.sql")
func IDFromFilename(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

// SortByID sorts migrations in ascending lexicographical order by their ID,
// the same order `ls` shows the files in.
func SortByID(migrations []SQLMigration) {
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].ID < migrations[j].ID
	})
}

// LoadSQL reads every .sql file of a filesystem (such as an embed.FS), sorted
// by ID.
func LoadSQL(filesystem fs.FS) ([]SQLMigration, error) {
	var migrations []SQLMigration
	if err := fs.WalkDir(filesystem, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		data, err := fs.ReadFile(filesystem, path)
		if err != nil {
			return err
		}
		migrations = append(migrations, SQLMigration{ID: IDFromFilename(d.Name()), SQL: string(data)})
		return nil
	}); err != nil {
		return nil, err
	}
	SortByID(migrations)
	return migrations, nil
}

// SQLVersions registers each migration as a version that executes its SQL,
// in the order given. They can be mixed freely with [Migrator.Version].
func (m *Migrator) SQLVersions(migrations ...SQLMigration) *Migrator {
	for _, migration := range migrations {
		sql := migration.SQL
		m.Version(migration.ID, func(ctx context.Context, db *Change) error {
			return db.Execute(ctx, sql)
		})
	}
	return m
}
