package root

import (
	"github.com/spf13/cobra"

	"github.com/modelfactory/modelfactory/cmd/modelfactory/shared"
	"github.com/modelfactory/modelfactory/ddl/postgres"
)

var MigrateFlags struct { //nolint:gochecknoglobals
	Clean *bool
}

var migrateCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:     "migrate",
	Aliases: []string{"apply"},
	Short:   "Apply any previously-unapplied migrations",
	Long: shared.CLIHelp(`
Runs every *.sql file of the migrations directory that is not yet recorded in
the version table, in ascending filename order, and records each one after it
succeeds.

Migrations are not run in a transaction. If one fails, migrate stops
immediately and returns its error; the migrations before it stay applied and
the failed one will be part of the next plan.

On PostgreSQL the run holds a session-level advisory lock, so that several
copies of an application can call "migrate" on startup. Other engines do not
lock.
	`),
	GroupID:          "migrating",
	TraverseChildren: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		shared.State.Parse()
		if err := shared.Validate(shared.State.Migrations()); err != nil {
			return err
		}
		slogger, mlogger := shared.State.Logger()
		db, err := shared.OpenDB(mlogger)
		if err != nil {
			return err
		}
		defer db.Close()

		m, err := shared.NewMigrator(db)
		if err != nil {
			return err
		}
		m.CleanVersions(*MigrateFlags.Clean)

		if db.Generator.Engine() == postgres.Engine {
			err = db.WithLock(cmd.Context(), shared.State.VersionTable().Value(), m.Migrate)
		} else {
			slogger.Debug("migrating without a lock", "engine", db.Generator.Engine())
			err = m.Migrate(cmd.Context())
		}
		if err != nil {
			return err
		}
		slogger.Info("migrated", "versions", len(m.Versions()))
		return nil
	},
}

func init() { //nolint:gochecknoinits
	MigrateFlags.Clean = migrateCmd.Flags().Bool("clean", false, "empty the version table first, re-running every migration")
}
