package trace

import (
	"context"
	"sort"

	"github.com/softgrove/graft/internal/ledger"
	"github.com/softgrove/graft/internal/model"
)

// DefaultMaxDepth bounds trace recursion when the caller does not ask
// for a specific depth. Eight hops covers any derivation chain a person
// plausibly built by hand while keeping dense graphs tractable.
const DefaultMaxDepth = 8

// GraphReader is the graph surface a trace walks. Both graph.Store and
// graph.Tx satisfy it. Walks dispatched inside an operation MUST go
// through the operation's open transaction: the stores hold a single
// pooled connection, and a store-level read would wait on the connection
// that transaction is pinning.
type GraphReader interface {
	GetEntityAny(ctx context.Context, id string) (model.Entity, error)
	GetRelation(ctx context.Context, id string) (model.Relation, error)
	RelationsInto(ctx context.Context, targetID string) ([]model.Relation, error)
}

// LedgerReader is the ledger surface a trace walks. Both ledger.Store
// and ledger.Tx satisfy it.
type LedgerReader interface {
	Get(ctx context.Context, id string) (model.Fact, error)
	Query(ctx context.Context, req ledger.QueryRequest) ([]model.Fact, error)
}

// Tracer walks the graph and ledger read-only.
type Tracer struct {
	graph    GraphReader
	ledger   LedgerReader
	maxDepth int
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithMaxDepth overrides the default recursion bound.
func WithMaxDepth(n int) Option {
	return func(t *Tracer) {
		if n > 0 {
			t.maxDepth = n
		}
	}
}

// New creates a Tracer over the two stores (or transaction handles).
func New(g GraphReader, l LedgerReader, opts ...Option) *Tracer {
	t := &Tracer{graph: g, ledger: l, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Result is one completed trace.
type Result struct {
	// Target is the resolved starting point.
	Target Target `json:"target"`

	// Events are the contributing facts and relations, oldest first.
	Events []model.CausalEvent `json:"events"`
}

// Target identifies what a trace id resolved to.
type Target struct {
	Kind model.Kind `json:"kind"`
	ID   string     `json:"id"`
}

// Track builds the causal chain for the given id. The id is resolved by
// probing: fact first (ids are disjoint across stores in practice, and a
// fact is the most specific request), then entity, then relation.
// A non-positive depth uses the tracer's configured bound.
func (t *Tracer) Track(ctx context.Context, targetID string, depth int) (Result, error) {
	return t.TrackIn(ctx, t.graph, t.ledger, targetID, depth)
}

// TrackIn runs the same walk through the given readers, typically the
// open transactions of the operation that requested the trace.
func (t *Tracer) TrackIn(ctx context.Context, g GraphReader, l LedgerReader, targetID string, depth int) (Result, error) {
	if targetID == "" {
		return Result{}, model.NewInvalidArgument("track: target is required")
	}
	if depth <= 0 || depth > t.maxDepth {
		depth = t.maxDepth
	}

	w := &walker{graph: g, ledger: l, maxDepth: depth, visited: make(map[visitKey]bool)}

	if f, err := l.Get(ctx, targetID); err == nil {
		if err := w.fact(ctx, f, 0); err != nil {
			return Result{}, err
		}
		return w.result(model.KindFact, targetID), nil
	} else if !model.IsNotFound(err) {
		return Result{}, err
	}

	if _, err := g.GetEntityAny(ctx, targetID); err == nil {
		if err := w.entity(ctx, targetID, 0); err != nil {
			return Result{}, err
		}
		return w.result(model.KindEntity, targetID), nil
	} else if !model.IsNotFound(err) {
		return Result{}, err
	}

	if r, err := g.GetRelation(ctx, targetID); err == nil {
		if err := w.relation(ctx, r, 0); err != nil {
			return Result{}, err
		}
		return w.result(model.KindRelation, targetID), nil
	} else if !model.IsNotFound(err) {
		return Result{}, err
	}

	return Result{}, model.NewNotFound("track target %s", targetID)
}

type visitKey struct {
	kind model.Kind
	id   string
}

// walker carries one trace's accumulation state.
type walker struct {
	graph    GraphReader
	ledger   LedgerReader
	maxDepth int
	visited  map[visitKey]bool
	events   []model.CausalEvent
}

// entity collects the facts about an entity and the relations feeding
// it, recursing into relation sources one level deeper.
func (w *walker) entity(ctx context.Context, id string, depth int) error {
	if depth > w.maxDepth {
		return nil
	}
	key := visitKey{model.KindEntity, id}
	if w.visited[key] {
		return nil
	}
	w.visited[key] = true

	facts, err := w.ledger.Query(ctx, ledger.QueryRequest{SubjectID: id})
	if err != nil {
		return err
	}
	for _, f := range facts {
		if err := w.fact(ctx, f, depth); err != nil {
			return err
		}
	}

	into, err := w.graph.RelationsInto(ctx, id)
	if err != nil {
		return err
	}
	for _, r := range into {
		if err := w.relation(ctx, r, depth); err != nil {
			return err
		}
	}
	return nil
}

// fact emits one fact event and walks the amends chain toward its root,
// so superseded payloads appear in the history of the current one.
func (w *walker) fact(ctx context.Context, f model.Fact, depth int) error {
	key := visitKey{model.KindFact, f.ID}
	if w.visited[key] {
		return nil
	}
	w.visited[key] = true

	w.events = append(w.events, model.CausalEvent{
		Kind:      model.KindFact,
		ID:        f.ID,
		Type:      f.FactType,
		SubjectID: f.SubjectID,
		Depth:     depth,
		At:        f.RecordedAt,
	})

	if f.Amends == "" {
		return nil
	}
	prior, err := w.ledger.Get(ctx, f.Amends)
	if model.IsNotFound(err) {
		// Dangling amends pointer; the chain ends here.
		return nil
	}
	if err != nil {
		return err
	}
	return w.fact(ctx, prior, depth)
}

// relation emits one relation event and recurses into its source
// entity's own causal chain, one level deeper.
func (w *walker) relation(ctx context.Context, r model.Relation, depth int) error {
	key := visitKey{model.KindRelation, r.ID}
	if w.visited[key] {
		return nil
	}
	w.visited[key] = true

	w.events = append(w.events, model.CausalEvent{
		Kind:     model.KindRelation,
		ID:       r.ID,
		Type:     r.Kind,
		SourceID: r.SourceID,
		TargetID: r.TargetID,
		Depth:    depth,
		At:       r.CreatedAt,
	})

	return w.entity(ctx, r.SourceID, depth+1)
}

// result orders the collected events oldest-first with id tiebreak and
// wraps them with the resolved target.
func (w *walker) result(kind model.Kind, id string) Result {
	sort.Slice(w.events, func(i, j int) bool {
		a, b := w.events[i], w.events[j]
		if !a.At.Equal(b.At) {
			return a.At.Before(b.At)
		}
		return a.ID < b.ID
	})
	if w.events == nil {
		w.events = []model.CausalEvent{}
	}
	return Result{Target: Target{Kind: kind, ID: id}, Events: w.events}
}
