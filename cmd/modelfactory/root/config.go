package root

import (
	"github.com/spf13/cobra"

	"github.com/modelfactory/modelfactory/cmd/modelfactory/shared"
)

var configCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:     "config",
	Aliases: []string{"debug"},
	Short:   "Print the current configuration / settings",
	Long: shared.CLIHelp(`
modelfactory reads its configuration from cli flags, environment variables, and
a configuration file, in that order. Before anything else it loads MF_*
variables from a ".env" file in the current directory (or the file passed with
--env-file), without overwriting variables that are already set.

modelfactory will look in the following locations for a configuration file:

- If you passed "--configfile <aaa>", then it reads "<aaa>"
- If you defined "MF_CONFIGFILE=<bbb>", then it reads "<bbb>"
- If your current directory has a ".modelfactory.yaml" file,
  it reads "$(pwd)/.modelfactory.yaml"
- If the root of your current git repo has a ".modelfactory.yaml" file,
  it reads "$(git_repo_root)/.modelfactory.yaml"

Here's an example configuration file. All keys are optional.

    # connection settings; "engine", "url" and "schema" can be overridden
    # with --engine, --database and --schema.
    profile:
      engine: postgres
      host: localhost
      port: 5433
      user: postgres
      password: password
      database: photos
      schema: public
      ssl: false
      socketTimeoutInSeconds: 10
    # path to the folder of *.sql migrations, relative to wherever the
    # command is invoked.
    migrations: "./migrations"
    # "table" or "schema.table"
    version_table: "schema_versions"
    # "text" or "json"
    log_format: text
	`),
	GroupID:          "dev",
	TraverseChildren: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		logger, _ := shared.State.Logger()
		configfile := shared.State.Configfile()
		logger.Info(configfile.Name(), "is_set", configfile.IsSet(), "value", configfile.Value())

		shared.State.Parse()

		engine := shared.State.Engine()
		database := shared.State.Database()
		schema := shared.State.Schema()
		migrations := shared.State.Migrations()
		versionTable := shared.State.VersionTable()
		logformat := shared.State.LogFormat()

		logger.Info(engine.Name(), "is_set", engine.IsSet(), "value", engine.Value())
		logger.Info(database.Name(), "is_set", database.IsSet(), "value", database.Value())
		logger.Info(schema.Name(), "is_set", schema.IsSet(), "value", schema.Value())
		logger.Info(migrations.Name(), "is_set", migrations.IsSet(), "value", migrations.Value())
		logger.Info(versionTable.Name(), "is_set", versionTable.IsSet(), "value", versionTable.Value())
		logger.Info(logformat.Name(), "is_set", logformat.IsSet(), "value", logformat.Value())

		profile := shared.State.Profile()
		logger.Info("profile", "id", profile.ID(), "valid", profile.Validate() == nil)
		return nil
	},
}
