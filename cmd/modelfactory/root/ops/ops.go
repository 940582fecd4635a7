package ops

import (
	"fmt"

	"github.com/spf13/cobra"
)

var Command = &cobra.Command{ //nolint:gochecknoglobals
	Use:     "ops",
	Aliases: []string{"op", "admin"},
	Short:   "Perform manual operations on the version table",
	GroupID: "ops",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf(`invalid command: "%s"`, args[0])
		}
		return cmd.Help()
	},
}

func init() { //nolint:gochecknoinits
	Command.AddCommand(markUnapplied)
	Command.AddCommand(markApplied)
}

// parseIDs merges positional arguments into the --id flag values and checks them
// against --all.
func parseIDs(args []string, flagged *[]string, all bool) ([]string, error) {
	ids := append(append([]string{}, *flagged...), args...)
	if len(ids) != 0 && all {
		return nil, fmt.Errorf("--all and --id are mutually exclusive")
	}
	if len(ids) == 0 && !all {
		return nil, fmt.Errorf("must pass at least one version with --id or --all")
	}
	return ids, nil
}
