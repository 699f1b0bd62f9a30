package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/softgrove/graft/internal/dispatch"
	"github.com/softgrove/graft/internal/model"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Payload string
	Actor   string
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <verb>",
		Short: "Dispatch one operation and print its envelope",
		Long: `Dispatch one operation through the verb registry.

The payload is a JSON object matching the verb's fields. Scoped verbs
(enter_scope, leave_scope, focus_scope, context) require --actor.

Examples:
  graft call create --payload '{"type":"person","attrs":{"name":"Ada"}}'
  graft call enter_scope --payload '{"scope":"work"}' --actor quinn`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Payload, "payload", "{}", "operation payload as JSON")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "acting principal")

	return cmd
}

func runCall(opts *CallOptions, verb string, cmd *cobra.Command) error {
	var payload dispatch.Payload
	if err := json.Unmarshal([]byte(opts.Payload), &payload); err != nil {
		return WrapExitError(ExitCommandError, "invalid --payload JSON", err)
	}

	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	env := a.Dispatcher.Dispatch(cmd.Context(), verb, payload, opts.Actor)

	f := formatter(opts.RootOptions, cmd)
	if !env.OK {
		if err := f.Error(model.ErrorKind(env.Error.Kind), env.Error.Message, env.Error.Details); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s failed: %s", verb, env.Error.Message))
	}
	return f.Success(env)
}
