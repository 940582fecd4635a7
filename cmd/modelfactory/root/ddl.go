package root

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/modelfactory/modelfactory"
	"github.com/modelfactory/modelfactory/cmd/modelfactory/shared"
	"github.com/modelfactory/modelfactory/ddl"
)

var DDLFlags struct { //nolint:gochecknoglobals
	Drop *bool
}

var ddlCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "ddl <file.yaml>",
	Short: "Print the SQL for table definitions written in YAML",
	Long: shared.CLIHelp(`
Renders the table definitions of a YAML file as SQL for the configured engine,
without connecting to a database. Pass "-" to read the file from stdin.

The file holds a list of tables, each created unless it gives another action
(alter, drop, createSequence, dropSequence or execute):

    tables:
      - name: Image
        columns:
          - {name: id, type: serial, primary_key: true}
          - {name: photoYear, type: integer, default: 0}
          - {name: place, type: varchar, length: 120, not_null: true}
          - {name: taken, type: timestamptz, default_expr: CURRENT_TIMESTAMP}
      - name: Image
        action: alter
        drop_columns: [taken]
	`),
	Example: shared.CLIExample(`
# Render for sqlite
modelfactory ddl --engine sqlite tables.yaml
# Drop each table before creating it
modelfactory ddl --engine postgres --drop tables.yaml
	`),
	GroupID: "dev",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shared.State.Parse()
		engine := shared.State.Engine()
		if err := shared.Validate(engine); err != nil {
			return err
		}
		data, err := readFile(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		generator, err := modelfactory.NewGenerator(engine.Value())
		if err != nil {
			return err
		}
		generator.SetDropBeforeCreate(*DDLFlags.Drop)
		return renderDDL(cmd.OutOrStdout(), generator, data)
	},
}

func readFile(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

func renderDDL(w io.Writer, generator ddl.Generator, data []byte) error {
	defs, err := shared.ParseTables(data)
	if err != nil {
		return err
	}
	for _, def := range defs {
		stmts, err := generator.TransformTable(def)
		if err != nil {
			return fmt.Errorf("%s %s: %w", def.Action, def.Name, err)
		}
		for _, stmt := range stmts {
			if _, err := fmt.Fprintf(w, "%s;\n", stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func init() { //nolint:gochecknoinits
	DDLFlags.Drop = ddlCmd.Flags().Bool("drop", false, "drop each table before creating it")
}
