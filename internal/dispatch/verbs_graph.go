package dispatch

import (
	"context"

	"github.com/softgrove/graft/internal/graph"
	"github.com/softgrove/graft/internal/model"
	"github.com/softgrove/graft/internal/txn"
)

type createRequest struct {
	Type  string      `json:"type"`
	Attrs model.Attrs `json:"attrs,omitempty"`
}

func handleCreate(ctx context.Context, d *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[createRequest](p)
	if err != nil {
		return nil, err
	}
	if err := d.checkTag(model.KindEntity, req.Type); err != nil {
		return nil, err
	}
	return h.Graph.CreateEntity(ctx, req.Type, req.Attrs)
}

type targetRequest struct {
	Target string `json:"target"`
}

func handleGet(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[targetRequest](p)
	if err != nil {
		return nil, err
	}
	return h.Graph.GetEntity(ctx, req.Target)
}

type editRequest struct {
	Target string      `json:"target"`
	Set    model.Attrs `json:"set,omitempty"`
	Unset  []string    `json:"unset,omitempty"`
}

func handleEdit(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[editRequest](p)
	if err != nil {
		return nil, err
	}
	return h.Graph.EditEntity(ctx, req.Target, req.Set, req.Unset)
}

type forgetRequest struct {
	Target string `json:"target"`
	Force  bool   `json:"force,omitempty"`
}

type forgetResult struct {
	Forgotten string `json:"forgotten"`
}

func handleForget(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[forgetRequest](p)
	if err != nil {
		return nil, err
	}
	if err := h.Graph.ForgetEntity(ctx, req.Target, req.Force); err != nil {
		return nil, err
	}
	return forgetResult{Forgotten: req.Target}, nil
}

type queryRequest struct {
	Type    string      `json:"type,omitempty"`
	Filters model.Attrs `json:"filters,omitempty"`
	Offset  int         `json:"offset,omitempty"`
	Limit   int         `json:"limit,omitempty"`
}

type queryResult struct {
	Entities []model.Entity `json:"entities"`
	Count    int            `json:"count"`
}

func handleQuery(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[queryRequest](p)
	if err != nil {
		return nil, err
	}
	entities, err := h.Graph.QueryEntities(ctx, graph.EntityQuery{
		Type:    req.Type,
		Filters: req.Filters,
		Offset:  req.Offset,
		Limit:   req.Limit,
	})
	if err != nil {
		return nil, err
	}
	return queryResult{Entities: entities, Count: len(entities)}, nil
}

type linkRequest struct {
	Kind   string      `json:"kind"`
	Source string      `json:"source"`
	Target string      `json:"target"`
	Attrs  model.Attrs `json:"attrs,omitempty"`
}

func handleLink(ctx context.Context, d *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[linkRequest](p)
	if err != nil {
		return nil, err
	}
	if err := d.checkTag(model.KindRelation, req.Kind); err != nil {
		return nil, err
	}
	return h.Graph.Link(ctx, req.Kind, req.Source, req.Target, req.Attrs)
}

type unlinkResult struct {
	Unlinked string `json:"unlinked"`
}

func handleUnlink(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[targetRequest](p)
	if err != nil {
		return nil, err
	}
	if err := h.Graph.Unlink(ctx, req.Target); err != nil {
		return nil, err
	}
	return unlinkResult{Unlinked: req.Target}, nil
}

func handleEditRelation(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[editRequest](p)
	if err != nil {
		return nil, err
	}
	return h.Graph.EditRelation(ctx, req.Target, req.Set, req.Unset)
}

func handleGetRelation(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[targetRequest](p)
	if err != nil {
		return nil, err
	}
	return h.Graph.GetRelation(ctx, req.Target)
}

type queryRelationRequest struct {
	Kind      string `json:"kind,omitempty"`
	Source    string `json:"source,omitempty"`
	Target    string `json:"target,omitempty"`
	AliveOnly bool   `json:"alive_only,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type queryRelationResult struct {
	Relations []model.Relation `json:"relations"`
	Count     int              `json:"count"`
}

func handleQueryRelation(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[queryRelationRequest](p)
	if err != nil {
		return nil, err
	}
	relations, err := h.Graph.QueryRelations(ctx, graph.RelationQuery{
		Kind:      req.Kind,
		SourceID:  req.Source,
		TargetID:  req.Target,
		AliveOnly: req.AliveOnly,
		Limit:     req.Limit,
	})
	if err != nil {
		return nil, err
	}
	return queryRelationResult{Relations: relations, Count: len(relations)}, nil
}

type exploreRequest struct {
	Anchor    string `json:"anchor"`
	Direction string `json:"direction,omitempty"`
	Radius    int    `json:"radius,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

func handleExplore(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[exploreRequest](p)
	if err != nil {
		return nil, err
	}
	return h.Graph.Explore(ctx, graph.ExploreQuery{
		AnchorID:  req.Anchor,
		Direction: graph.Direction(req.Direction),
		Radius:    req.Radius,
		Kind:      req.Kind,
		Limit:     req.Limit,
	})
}

// checkTag applies the vocabulary to a type tag. Strict vocabularies
// reject unknown tags; non-strict ones only log them.
func (d *Dispatcher) checkTag(kind model.Kind, tag string) error {
	var err error
	switch kind {
	case model.KindEntity:
		err = d.vocab.CheckEntityType(tag)
	case model.KindRelation:
		err = d.vocab.CheckRelationKind(tag)
	case model.KindFact:
		err = d.vocab.CheckFactType(tag)
	}
	if err != nil {
		return err
	}
	if !d.vocab.Empty() && !d.vocab.Known(kind, tag) {
		d.logger.Debug("tag not in vocabulary", "kind", kind, "tag", tag)
	}
	return nil
}
