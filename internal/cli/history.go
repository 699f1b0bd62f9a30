package cli

import (
	"github.com/spf13/cobra"

	"github.com/softgrove/graft/internal/dispatch"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <fact-id>",
		Short: "Print the amendment chain of a fact",
		Long: `Print the full amendment chain containing a fact, oldest first.

The id may be any link in the chain; the chain is resolved from its
root.

Example:
  graft history fact-0003`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatchAndPrint(rootOpts, cmd, "history", dispatch.Payload{"target": args[0]}, "")
		},
	}
}
