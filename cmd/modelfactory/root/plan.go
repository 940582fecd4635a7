package root

import (
	"github.com/spf13/cobra"

	"github.com/modelfactory/modelfactory/cmd/modelfactory/shared"
)

var planCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:     "plan",
	Short:   "Preview which migrations would be applied",
	GroupID: "migrating",
	Long: shared.CLIHelp(`
Lists the *.sql files of the migrations directory that are not recorded in the
version table, in the order "migrate" would run them: ascending by filename.
	`),
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
		plan, err := m.Plan(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range plan {
			slogger.Info(id)
		}
		return nil
	},
}
