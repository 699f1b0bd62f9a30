package cli

import (
	"github.com/spf13/cobra"

	"github.com/softgrove/graft/internal/dispatch"
)

// NewContextCommand creates the context command.
func NewContextCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "context <owner>",
		Short: "Show an owner's active scopes and primary",
		Long: `Show the active scope frames and the primary scope for one owner.

Scope state is in-memory per process, so this reflects operations
dispatched earlier in the same process (notably scenario runs).

Example:
  graft context quinn`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatchAndPrint(rootOpts, cmd, "context", dispatch.Payload{}, args[0])
		},
	}
}
