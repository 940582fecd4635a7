package ops

import (
	"github.com/spf13/cobra"

	"github.com/modelfactory/modelfactory/cmd/modelfactory/shared"
)

var MarkAppliedFlags struct { //nolint:gochecknoglobals
	IDs *[]string
	All *bool
}

var markApplied = &cobra.Command{ //nolint:gochecknoglobals
	Use:     "mark-applied",
	Aliases: []string{"create"},
	Short:   "mark migrations as having been applied without actually running them",
	Long: shared.CLIHelp(`
Records migrations of the migrations directory in the version table without
running them. Migrations that are already recorded, or that are not in the
migrations directory, are skipped with a warning.
	`),
	Example: shared.CLIExample(`
# Mark 0001_initial.sql as applied without running the migration
modelfactory ops mark-applied 0001_initial
modelfactory ops mark-applied --id 0001_initial

# Mark all migrations as having been applied
modelfactory ops mark-applied --all
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ids, err := parseIDs(args, MarkAppliedFlags.IDs, *MarkAppliedFlags.All)
		if err != nil {
			return err
		}
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

		var marked []string
		if *MarkAppliedFlags.All {
			slogger.Info("marking ALL as applied")
			marked, err = m.MarkAllApplied(ctx)
		} else {
			marked, err = m.MarkApplied(ctx, ids...)
		}
		slogger.Info("marked versions as applied", "count", len(marked))
		for _, id := range marked {
			slogger.Info("marked as applied", "version", id)
		}
		return err
	},
}

func init() { //nolint:gochecknoinits
	MarkAppliedFlags.IDs = markApplied.Flags().StringArrayP("id", "i", nil, "versions to mark as applied")
	MarkAppliedFlags.All = markApplied.Flags().BoolP("all", "a", false, "if true, mark all migrations as applied")
	markApplied.MarkFlagsMutuallyExclusive("id", "all")
}
