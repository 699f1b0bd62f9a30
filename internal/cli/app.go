package cli

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/softgrove/graft/internal/config"
	"github.com/softgrove/graft/internal/dispatch"
	"github.com/softgrove/graft/internal/graph"
	"github.com/softgrove/graft/internal/ledger"
	"github.com/softgrove/graft/internal/metrics"
	"github.com/softgrove/graft/internal/scope"
	"github.com/softgrove/graft/internal/trace"
	"github.com/softgrove/graft/internal/txn"
	"github.com/softgrove/graft/internal/vocab"
)

// app is the fully wired stack behind every command that touches data.
type app struct {
	Config     config.Config
	Graph      *graph.Store
	Ledger     *ledger.Store
	Dispatcher *dispatch.Dispatcher
}

// loadConfig resolves the effective configuration for a command.
func loadConfig(opts *RootOptions) (config.Config, error) {
	if opts.Config == "" {
		return config.Default(), nil
	}
	return config.Load(opts.Config)
}

// openApp loads config, opens both stores (creating and migrating as
// needed), compiles the vocabulary, and wires the dispatcher.
func openApp(opts *RootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	voc, err := vocab.Compile(cfg.Vocab.Paths...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to compile vocabulary", err)
	}
	voc.Strict = cfg.Vocab.Strict

	g, err := graph.Open(cfg.GraphDB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open graph store", err)
	}

	l, err := ledger.Open(cfg.LedgerDB)
	if err != nil {
		g.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open ledger store", err)
	}

	scopes := scope.NewManager(
		scope.WithMaxFrames(cfg.Scopes.MaxFramesPerOwner),
		scope.WithLockTimeout(cfg.Scopes.LockTimeout),
	)
	m := metrics.New(prometheus.NewRegistry())
	coord := txn.New(g, l, scopes,
		txn.WithLogger(slog.Default()),
		txn.WithMetrics(m),
	)
	tracer := trace.New(g, l, trace.WithMaxDepth(cfg.Trace.MaxDepth))

	dopts := []dispatch.Option{
		dispatch.WithVocabulary(voc),
		dispatch.WithLogger(slog.Default()),
		dispatch.WithMetrics(m),
	}
	if cfg.Audit {
		dopts = append(dopts, dispatch.WithAudit())
	}
	d := dispatch.New(coord, g, l, scopes, tracer, dopts...)

	return &app{Config: cfg, Graph: g, Ledger: l, Dispatcher: d}, nil
}

// Close releases both store handles.
func (a *app) Close() {
	if err := a.Ledger.Close(); err != nil {
		slog.Error("closing ledger store", "error", err)
	}
	if err := a.Graph.Close(); err != nil {
		slog.Error("closing graph store", "error", err)
	}
}

// formatter builds the output formatter for one command invocation.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
