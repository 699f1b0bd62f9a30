package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/softgrove/graft/internal/harness"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml...>",
		Short: "Run scenario files against a fresh stack",
		Long: `Run one or more YAML scenario files.

All scenarios share one wired stack, so earlier scenarios' data and
scope state are visible to later ones. Steps keep running after a
failed expectation; the report lists every divergence.

Example:
  graft run scenarios/entity_lifecycle.yaml scenarios/scopes.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(rootOpts, args, cmd)
		},
	}
}

// runReport summarizes one scenario for printing.
type runReport struct {
	Scenario string   `json:"scenario"`
	Steps    int      `json:"steps"`
	Passed   bool     `json:"passed"`
	Failures []string `json:"failures,omitempty"`
}

func runScenarios(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	scenarios, err := harness.LoadScenarios(paths...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}

	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	runner := harness.NewRunner(a.Dispatcher)
	f := formatter(opts, cmd)

	failed := 0
	reports := make([]runReport, 0, len(scenarios))
	for _, sc := range scenarios {
		report, err := runner.Run(cmd.Context(), sc)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scenario %s aborted", sc.Name), err)
		}
		if !report.Passed() {
			failed++
		}
		reports = append(reports, runReport{
			Scenario: sc.Name,
			Steps:    len(report.Steps),
			Passed:   report.Passed(),
			Failures: report.Failures(),
		})
		f.VerboseLog("scenario %s: %d step(s), passed=%v", sc.Name, len(report.Steps), report.Passed())
	}

	if err := f.Success(reports); err != nil {
		return err
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", failed, len(scenarios)))
	}
	return nil
}
