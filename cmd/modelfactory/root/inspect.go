package root

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/modelfactory/modelfactory"
	"github.com/modelfactory/modelfactory/cmd/modelfactory/shared"
)

var inspectCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:     "inspect [table]...",
	Aliases: []string{"describe"},
	Short:   "Show the columns and inferred keys of tables",
	Long: shared.CLIHelp(`
Describes the named tables of the configured schema, or every table when none
are named.

The keys shown are the ones Save falls back to for records that do not declare
their own: integer columns filled by a sequence or an identity. Autofill
columns are left out of inserts and updates.
	`),
	Example: shared.CLIExample(`
# Describe every table
modelfactory inspect
# Describe two tables, with each column
modelfactory inspect Image tag --columns
	`),
	GroupID: "dev",
	RunE: func(cmd *cobra.Command, args []string) error {
		shared.State.Parse()
		slogger, mlogger := shared.State.Logger()
		db, err := shared.OpenDB(mlogger)
		if err != nil {
			return err
		}
		defer db.Close()

		var tables []*modelfactory.TableInfo
		if len(args) == 0 {
			tables, err = db.TableInfos(cmd.Context(), "")
		} else {
			for _, name := range args {
				var info *modelfactory.TableInfo
				info, err = db.TableInfo(cmd.Context(), "", name)
				if err != nil {
					break
				}
				tables = append(tables, info)
			}
		}
		if err != nil {
			return err
		}
		for _, table := range tables {
			logTable(slogger, table, *InspectFlags.Columns)
		}
		return nil
	},
}

var InspectFlags struct { //nolint:gochecknoglobals
	Columns *bool
}

func logTable(slogger *log.Logger, table *modelfactory.TableInfo, columns bool) {
	slogger.With(
		"schema", table.Schema,
		"columns", len(table.Columns),
		"primary_keys", table.PrimaryKeys(),
		"autofill", table.AutofillColumns(),
	).Info(table.Name)
	if !columns {
		return
	}
	for _, c := range table.Columns {
		slogger.With(
			"type", c.Type(),
			"data_type", c.DataType,
			"nullable", c.Nullable(),
			"default", c.Default.String,
			"serial", c.IsSerial(),
		).Info(table.Name + "." + c.Name)
	}
}

func init() { //nolint:gochecknoinits
	InspectFlags.Columns = inspectCmd.Flags().BoolP("columns", "c", false, "also show every column")
}
