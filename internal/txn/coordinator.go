package txn

import (
	"context"
	"log/slog"

	"github.com/softgrove/graft/internal/graph"
	"github.com/softgrove/graft/internal/ledger"
	"github.com/softgrove/graft/internal/metrics"
	"github.com/softgrove/graft/internal/model"
	"github.com/softgrove/graft/internal/scope"
)

// Handles is what a handler gets to work with: staged transactions on
// both stores and, when the operation names an owner, that owner's
// staged scope state.
type Handles struct {
	Graph  *graph.Tx
	Ledger *ledger.Tx

	// Scope is nil unless the operation was run with an owner.
	Scope *scope.Stage
}

// Handler is one operation body executed under coordination.
type Handler func(ctx context.Context, h *Handles) error

// Coordinator wraps handlers in the staged-commit protocol.
type Coordinator struct {
	graph   *graph.Store
	ledger  *ledger.Store
	scopes  *scope.Manager
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics attaches instrumentation. Nil is accepted and disables
// recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// New creates a Coordinator over the stores and the scope manager.
func New(g *graph.Store, l *ledger.Store, s *scope.Manager, opts ...Option) *Coordinator {
	c := &Coordinator{
		graph:  g,
		ledger: l,
		scopes: s,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes fn with coordinated handles. A non-empty owner acquires
// that owner's exclusive section first and gives fn a scope stage.
//
// On fn success the commit order is ledger, graph, scope. On any error
// (from fn or from a commit step that can still be undone) both SQL
// transactions roll back, the scope stage is discarded, and the original
// error propagates.
func (c *Coordinator) Run(ctx context.Context, owner string, fn Handler) (err error) {
	h := &Handles{}

	if owner != "" {
		release, lockErr := c.scopes.Lock(ctx, owner)
		if lockErr != nil {
			return lockErr
		}
		defer release()
		h.Scope = c.scopes.Begin(owner)
	}

	h.Graph, err = c.graph.Begin(ctx)
	if err != nil {
		return err
	}
	// Rollback after a successful commit is a no-op; these defers make
	// release unconditional on every exit path.
	defer h.Graph.Rollback()

	h.Ledger, err = c.ledger.Begin(ctx)
	if err != nil {
		return err
	}
	defer h.Ledger.Rollback()

	if err = fn(ctx, h); err != nil {
		c.metrics.ObserveRollback()
		return err
	}

	// Every graph statement has already executed inside the open graph
	// transaction, so the graph is staged and commit-ready. The ledger
	// goes first: if it cannot commit, the graph rolls back and the
	// operation has no effect anywhere.
	if err = h.Ledger.Commit(); err != nil {
		c.metrics.ObserveRollback()
		return model.WrapInternal(err, "commit ledger")
	}

	if err = h.Graph.Commit(); err != nil {
		// The ledger already committed; this is the residual
		// inconsistency window of two physical stores.
		c.logger.Error("graph commit failed after ledger commit; stores may disagree",
			"owner", owner, "error", err)
		c.metrics.ObserveRollback()
		return model.WrapInternal(err, "commit graph after ledger commit")
	}

	if h.Scope != nil {
		h.Scope.Commit()
	}
	return nil
}
