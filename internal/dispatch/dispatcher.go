package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/softgrove/graft/internal/graph"
	"github.com/softgrove/graft/internal/ledger"
	"github.com/softgrove/graft/internal/metrics"
	"github.com/softgrove/graft/internal/model"
	"github.com/softgrove/graft/internal/scope"
	"github.com/softgrove/graft/internal/trace"
	"github.com/softgrove/graft/internal/txn"
	"github.com/softgrove/graft/internal/vocab"
)

// handlerFunc is one verb's body, run inside the coordinator. The
// returned value becomes the envelope's result.
type handlerFunc func(ctx context.Context, d *Dispatcher, h *txn.Handles, p Payload, actor string) (any, error)

// verb is one registry entry.
type verb struct {
	// required payload fields, checked before the handler runs.
	required []string

	// scoped verbs take the owner from the actor and serialize per
	// owner through the coordinator.
	scoped bool

	handler handlerFunc
}

// Dispatcher resolves verbs and runs them under transaction
// coordination.
type Dispatcher struct {
	coord  *txn.Coordinator
	graph  *graph.Store
	ledger *ledger.Store
	scopes *scope.Manager
	tracer *trace.Tracer

	vocab   *vocab.Set
	search  SearchProvider
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   model.Clock
	audit   bool

	verbs map[string]verb
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithVocabulary attaches a compiled type vocabulary. Strictness is the
// vocabulary's own setting.
func WithVocabulary(v *vocab.Set) Option {
	return func(d *Dispatcher) {
		d.vocab = v
	}
}

// WithSearchProvider registers the search verb backed by the given
// provider. Without one the verb stays unregistered.
func WithSearchProvider(p SearchProvider) Option {
	return func(d *Dispatcher) {
		d.search = p
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics attaches instrumentation. Nil disables recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithClock overrides the envelope timestamp source.
func WithClock(c model.Clock) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// New creates a Dispatcher with every core verb registered.
func New(coord *txn.Coordinator, g *graph.Store, l *ledger.Store, s *scope.Manager, tr *trace.Tracer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		coord:  coord,
		graph:  g,
		ledger: l,
		scopes: s,
		tracer: tr,
		logger: slog.Default(),
		clock:  model.SystemClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.register()
	return d
}

// Verbs returns the registered verb names, for diagnostics.
func (d *Dispatcher) Verbs() []string {
	names := make([]string, 0, len(d.verbs))
	for name := range d.verbs {
		names = append(names, name)
	}
	return names
}

// Dispatch runs one operation to completion and returns its envelope.
// It never returns a Go error: every failure, domain or internal, is
// normalized into the envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, op string, p Payload, actor string) Envelope {
	start := time.Now()
	env := d.dispatch(ctx, op, p, actor, start)
	if d.audit {
		// The operation's own deadline must not cut the trail short.
		d.writeAudit(context.WithoutCancel(ctx), op, p, actor, env, time.Since(start))
	}
	return env
}

func (d *Dispatcher) dispatch(ctx context.Context, op string, p Payload, actor string, start time.Time) Envelope {
	v, ok := d.verbs[op]
	if !ok {
		return d.fail(op, actor, model.NewUnknownOperation(op), start)
	}

	if v.scoped && actor == "" {
		return d.fail(op, actor, model.NewInvalidArgument("%s: actor is required", op), start)
	}

	if err := checkRequired(op, p, v.required); err != nil {
		return d.fail(op, actor, err, start)
	}

	owner := ""
	if v.scoped {
		owner = actor
	}

	var result any
	err := d.coord.Run(ctx, owner, func(ctx context.Context, h *txn.Handles) error {
		r, err := v.handler(ctx, d, h, p, actor)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return d.fail(op, actor, err, start)
	}

	d.metrics.ObserveOperation(op, "ok", time.Since(start))
	return Envelope{OK: true, Actor: actor, TS: d.clock.Now(), Result: result}
}

// fail builds a failure envelope and records the outcome.
func (d *Dispatcher) fail(op, actor string, err error, start time.Time) Envelope {
	info := errorInfo(err)
	d.metrics.ObserveOperation(op, info.Kind, time.Since(start))
	d.logger.Debug("operation failed", "op", op, "actor", actor, "kind", info.Kind, "error", info.Message)
	return Envelope{OK: false, Actor: actor, TS: d.clock.Now(), Error: info}
}

// register wires the verb table. Registration happens once at
// construction; the table is read-only afterwards, so Dispatch needs no
// locking of its own.
func (d *Dispatcher) register() {
	d.verbs = map[string]verb{
		"create":         {required: []string{"type"}, handler: handleCreate},
		"get":            {required: []string{"target"}, handler: handleGet},
		"edit":           {required: []string{"target"}, handler: handleEdit},
		"forget":         {required: []string{"target"}, handler: handleForget},
		"query":          {handler: handleQuery},
		"link":           {required: []string{"kind", "source", "target"}, handler: handleLink},
		"unlink":         {required: []string{"target"}, handler: handleUnlink},
		"edit_relation":  {required: []string{"target"}, handler: handleEditRelation},
		"get_relation":   {required: []string{"target"}, handler: handleGetRelation},
		"query_relation": {handler: handleQueryRelation},
		"append":         {required: []string{"subject", "fact_type", "payload"}, handler: handleAppend},
		"get_fact":       {required: []string{"target"}, handler: handleGetFact},
		"query_facts":    {required: []string{"subject"}, handler: handleQueryFacts},
		"history":        {required: []string{"target"}, handler: handleHistory},
		"enter_scope":    {required: []string{"scope"}, scoped: true, handler: handleEnterScope},
		"leave_scope":    {required: []string{"scope"}, scoped: true, handler: handleLeaveScope},
		"focus_scope":    {required: []string{"scope"}, scoped: true, handler: handleFocusScope},
		"context":        {scoped: true, handler: handleContext},
		"track":          {required: []string{"target"}, handler: handleTrack},
		"explore":        {required: []string{"anchor"}, handler: handleExplore},
	}
	if d.search != nil {
		d.verbs["search"] = verb{required: []string{"query"}, handler: handleSearch}
	}
}
