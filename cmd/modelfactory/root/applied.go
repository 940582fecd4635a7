package root

import (
	"github.com/spf13/cobra"

	"github.com/modelfactory/modelfactory/cmd/modelfactory/shared"
)

var appliedCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:     "applied",
	Aliases: []string{"list"},
	Short:   "Show all previously-applied versions",
	Long: shared.CLIHelp(`
Prints the versions recorded in the version table, oldest first.

The version table is created if it does not exist yet, so against a new
database this prints nothing and exits successfully.
	`),
	GroupID:          "migrating",
	TraverseChildren: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		shared.State.Parse()
		slogger, mlogger := shared.State.Logger()
		db, err := shared.OpenDB(mlogger)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := db.Migrator().Applied(cmd.Context())
		if err != nil {
			return err
		}
		for _, v := range applied {
			slogger.With("applied_at", v.AppliedAt).Info(v.Version)
		}
		return nil
	},
}
