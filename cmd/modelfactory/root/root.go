package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelfactory/modelfactory/cmd/modelfactory/root/ops"
	"github.com/modelfactory/modelfactory/cmd/modelfactory/shared"
)

var Command = &cobra.Command{ //nolint:gochecknoglobals
	Version: shared.VersionString(),
	Use:     "modelfactory",
	Short:   "inspect databases and manage their schema versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf(`invalid command: "%s"`, args[0])
		}
		return cmd.Help()
	},
}

func init() { //nolint:gochecknoinits
	Command.CompletionOptions.HiddenDefaultCmd = true
	Command.TraverseChildren = true
	Command.SilenceErrors = true
	Command.SilenceUsage = false
	Command.SetVersionTemplate("{{.Version}}\n")

	flags := Command.PersistentFlags()
	shared.State.Flags.LogFormat = flags.StringP(
		"log-format",
		"l",
		"",
		fmt.Sprintf("[MF_LOG_FORMAT] '%s' or '%s', the log line format (default '%s')", shared.LogFormatText, shared.LogFormatJSON, shared.LogFormatText),
	)
	shared.State.Flags.Verbose = flags.Bool(
		"verbose",
		false,
		"log every statement that is executed",
	)
	shared.State.Flags.Engine = flags.StringP(
		"engine",
		"e",
		"",
		"[MF_ENGINE] the database engine: postgres, sqlite, mysql or sqlserver",
	)
	shared.State.Flags.Database = flags.StringP(
		"database",
		"d",
		"",
		"[MF_DATABASE] a connection string for the engine's driver, overriding the configured profile",
	)
	shared.State.Flags.Schema = flags.StringP(
		"schema",
		"s",
		"",
		"[MF_SCHEMA] the schema to inspect and migrate",
	)
	shared.State.Flags.Migrations = flags.StringP(
		"migrations",
		"m",
		"",
		"[MF_MIGRATIONS] a path to a directory containing *.sql migrations",
	)
	shared.State.Flags.VersionTable = flags.StringP(
		"version-table",
		"t",
		"",
		"[MF_VERSION_TABLE] the table recording applied versions, optionally 'schema.table'",
	)
	shared.State.Flags.ConfigFile = flags.StringP(
		"configfile",
		"f",
		"",
		"[MF_CONFIGFILE] a path to a configuration file",
	)
	shared.State.Flags.EnvFile = flags.String(
		"env-file",
		"",
		"a file of MF_* environment variables to load (default '.env')",
	)
	_ = Command.MarkPersistentFlagDirname("migrations")

	Command.AddGroup(
		&cobra.Group{
			ID:    "migrating",
			Title: "Migrating:",
		},
		&cobra.Group{
			ID:    "ops",
			Title: "Operations:",
		},
		&cobra.Group{
			ID:    "dev",
			Title: "Development:",
		},
	)

	// migrating
	Command.AddCommand(appliedCmd)
	Command.AddCommand(planCmd)
	Command.AddCommand(migrateCmd)

	// ops
	Command.AddCommand(ops.Command)
	Command.AddCommand(versionCmd)

	// dev
	Command.AddCommand(inspectCmd)
	Command.AddCommand(ddlCmd)
	Command.AddCommand(configCmd)
	Command.SetHelpCommandGroupID("dev")
}
