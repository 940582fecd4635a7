package ops

import (
	"github.com/spf13/cobra"

	"github.com/modelfactory/modelfactory"
	"github.com/modelfactory/modelfactory/cmd/modelfactory/shared"
)

var MarkUnappliedFlags struct { //nolint:gochecknoglobals
	IDs *[]string
	All *bool
}

var markUnapplied = &cobra.Command{ //nolint:gochecknoglobals
	Use:     "mark-unapplied",
	Aliases: []string{"unapply", "remove", "rm", "delete"},
	Short:   "mark versions as having NOT been applied by removing the records that said they were",
	Long: shared.CLIHelp(`
Removes rows from the version table. Nothing the versions did to the schema is
undone, and they will run again the next time the database is migrated.

Any recorded version can be removed, whether or not it is in the migrations
directory.
	`),
	Example: shared.CLIExample(`
# Remove the record of 0002_tags
modelfactory ops unapply 0002_tags
modelfactory ops mark-unapplied --id 0002_tags

# Empty the version table
modelfactory ops mark-unapplied --all
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ids, err := parseIDs(args, MarkUnappliedFlags.IDs, *MarkUnappliedFlags.All)
		if err != nil {
			return err
		}
		shared.State.Parse()
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

		var removed []modelfactory.AppliedVersion
		if *MarkUnappliedFlags.All {
			slogger.Info("marking ALL as unapplied")
			removed, err = m.MarkAllUnapplied(ctx)
		} else {
			removed, err = m.MarkUnapplied(ctx, ids...)
		}
		slogger.Info("marked versions as unapplied", "count", len(removed))
		for _, v := range removed {
			slogger.Info("marked as unapplied", "version", v.Version, "applied_at", v.AppliedAt)
		}
		return err
	},
}

func init() { //nolint:gochecknoinits
	MarkUnappliedFlags.IDs = markUnapplied.Flags().StringArrayP("id", "i", nil, "versions to mark as unapplied")
	MarkUnappliedFlags.All = markUnapplied.Flags().BoolP("all", "a", false, "if true, mark all versions as unapplied")
	markUnapplied.MarkFlagsMutuallyExclusive("id", "all")
}
