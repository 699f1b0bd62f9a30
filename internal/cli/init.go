package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create and migrate both store files",
		Long: `Create and migrate the graph and ledger SQLite files.

Opening a store applies any pending schema migrations, so init is also
how existing files are upgraded after an update.

Example:
  graft init --config graft.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("stores ready", "graph_db", a.Config.GraphDB, "ledger_db", a.Config.LedgerDB)

	f := formatter(opts, cmd)
	return f.Success(fmt.Sprintf("initialized %s and %s", a.Config.GraphDB, a.Config.LedgerDB))
}
