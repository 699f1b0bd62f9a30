package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/softgrove/graft/internal/model"
	"github.com/softgrove/graft/internal/vocab"
)

// NewVocabCommand creates the vocab command.
func NewVocabCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vocab <file...>",
		Short: "Compile vocabulary files and report what they declare",
		Long: `Compile one or more CUE vocabulary files.

Compilation checks syntax, cross-file duplicates, extends chains, and
relation endpoint constraints. On success the declared type names are
printed.

Example:
  graft vocab vocab/core.cue vocab/work.cue`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVocab(rootOpts, args, cmd)
		},
	}
}

// vocabReport is the printable summary of a compiled vocabulary.
type vocabReport struct {
	Files         int      `json:"files"`
	EntityTypes   []string `json:"entity_types"`
	RelationKinds []string `json:"relation_kinds"`
	FactTypes     []string `json:"fact_types"`
}

func runVocab(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := formatter(opts, cmd)

	set, err := vocab.Compile(paths...)
	if err != nil {
		if printErr := f.Error(model.ErrInvalidArgument, err.Error(), nil); printErr != nil {
			return printErr
		}
		return WrapExitError(ExitFailure, "vocabulary compilation failed", err)
	}

	report := vocabReport{
		Files:         len(paths),
		EntityTypes:   make([]string, 0, len(set.EntityTypes())),
		RelationKinds: make([]string, 0, len(set.RelationKinds())),
		FactTypes:     make([]string, 0, len(set.FactTypes())),
	}
	for _, et := range set.EntityTypes() {
		report.EntityTypes = append(report.EntityTypes, et.Name)
	}
	for _, rk := range set.RelationKinds() {
		report.RelationKinds = append(report.RelationKinds, rk.Name)
	}
	for _, ft := range set.FactTypes() {
		report.FactTypes = append(report.FactTypes, ft.Name)
	}

	f.VerboseLog("compiled %d file(s): %d entity types, %d relation kinds, %d fact types",
		report.Files, len(report.EntityTypes), len(report.RelationKinds), len(report.FactTypes))
	if err := f.Success(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
