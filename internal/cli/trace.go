package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/softgrove/graft/internal/dispatch"
	"github.com/softgrove/graft/internal/model"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Depth int
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <target>",
		Short: "Walk the causal neighborhood of an entity, fact, or relation",
		Long: `Walk the causal neighborhood of a target id.

The target may be an entity, fact, or relation id; resolution tries
each kind in that order. Events print oldest first.

Example:
  graft trace node-0001 --depth 4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Depth, "depth", 0, "recursion bound (0 uses the configured default)")

	return cmd
}

func runTrace(opts *TraceOptions, target string, cmd *cobra.Command) error {
	payload := dispatch.Payload{"target": target}
	if opts.Depth > 0 {
		payload["depth"] = opts.Depth
	}
	return dispatchAndPrint(opts.RootOptions, cmd, "track", payload, "")
}

// dispatchAndPrint runs one verb through a freshly wired app and prints
// the envelope, converting failures into exit codes.
func dispatchAndPrint(opts *RootOptions, cmd *cobra.Command, verb string, payload dispatch.Payload, actor string) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	env := a.Dispatcher.Dispatch(cmd.Context(), verb, payload, actor)

	f := formatter(opts, cmd)
	if !env.OK {
		if err := f.Error(model.ErrorKind(env.Error.Kind), env.Error.Message, env.Error.Details); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s failed: %s", verb, env.Error.Message))
	}
	return f.Success(env.Result)
}
