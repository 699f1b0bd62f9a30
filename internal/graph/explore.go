package graph

import (
	"context"
	"sort"

	"github.com/softgrove/graft/internal/model"
)

// Direction selects which relation endpoints an explore walk follows.
type Direction string

const (
	DirectionOut  Direction = "out"  // follow relations whose source is the frontier node
	DirectionIn   Direction = "in"   // follow relations whose target is the frontier node
	DirectionBoth Direction = "both" // follow either endpoint
)

// DefaultExploreRadius bounds explore walks when the caller passes zero.
const DefaultExploreRadius = 2

// DefaultExploreLimit caps the node count of a neighborhood when the
// caller passes zero.
const DefaultExploreLimit = 100

// ExploreQuery describes one neighborhood walk.
type ExploreQuery struct {
	// AnchorID is the entity the walk starts from.
	AnchorID string

	// Direction defaults to both.
	Direction Direction

	// Radius is the maximum hop count from the anchor.
	Radius int

	// Kind narrows the walk to one relation kind when non-empty.
	Kind string

	// Limit caps the number of entities in the result.
	Limit int
}

// Neighborhood is the result of an explore walk: the reached entities
// (anchor first, then by hop distance) and the live relations that
// connect them.
type Neighborhood struct {
	Anchor    string               `json:"anchor"`
	Entities  []NeighborhoodEntity `json:"entities"`
	Relations []model.Relation     `json:"relations"`
	Truncated bool                 `json:"truncated"`
}

// NeighborhoodEntity is one reached entity with its hop distance from
// the anchor.
type NeighborhoodEntity struct {
	Entity model.Entity `json:"entity"`
	Depth  int          `json:"depth"`
}

// Explore runs a breadth-first walk over live relations from an anchor
// entity, bounded by radius and node limit. Forgotten entities stop the
// walk at their edge; the relation is still reported so the caller can
// see the dangling reference.
func (s *Store) Explore(ctx context.Context, q ExploreQuery) (Neighborhood, error) {
	return explore(ctx, s.db, q)
}

// Explore is the in-transaction variant. Handlers run it through their
// open transaction so the walk never waits on the store's single pooled
// connection.
func (t *Tx) Explore(ctx context.Context, q ExploreQuery) (Neighborhood, error) {
	return explore(ctx, t.tx, q)
}

func explore(ctx context.Context, db dbtx, q ExploreQuery) (Neighborhood, error) {
	if q.AnchorID == "" {
		return Neighborhood{}, model.NewInvalidArgument("explore: anchor is required")
	}
	if q.Direction == "" {
		q.Direction = DirectionBoth
	}
	switch q.Direction {
	case DirectionOut, DirectionIn, DirectionBoth:
	default:
		return Neighborhood{}, model.NewInvalidArgument("explore: direction must be out, in, or both")
	}
	if q.Radius <= 0 {
		q.Radius = DefaultExploreRadius
	}
	if q.Limit <= 0 {
		q.Limit = DefaultExploreLimit
	}

	anchor, err := getEntity(ctx, db, q.AnchorID, false)
	if err != nil {
		return Neighborhood{}, err
	}

	nb := Neighborhood{
		Anchor:    anchor.ID,
		Entities:  []NeighborhoodEntity{{Entity: anchor, Depth: 0}},
		Relations: make([]model.Relation, 0),
	}

	visited := map[string]bool{anchor.ID: true}
	seenRelations := map[string]bool{}
	frontier := []string{anchor.ID}

	for depth := 1; depth <= q.Radius && len(frontier) > 0; depth++ {
		var next []string
		for _, nodeID := range frontier {
			rels, err := neighborRelations(ctx, db, nodeID, q.Direction, q.Kind)
			if err != nil {
				return Neighborhood{}, err
			}
			for _, r := range rels {
				if !seenRelations[r.ID] {
					seenRelations[r.ID] = true
					nb.Relations = append(nb.Relations, r)
				}

				otherID := r.TargetID
				if otherID == nodeID {
					otherID = r.SourceID
				}
				if visited[otherID] {
					continue
				}
				visited[otherID] = true

				if len(nb.Entities) >= q.Limit {
					nb.Truncated = true
					continue
				}

				other, err := getEntity(ctx, db, otherID, false)
				if model.IsNotFound(err) {
					// Forgotten endpoint: edge reported, node skipped.
					continue
				}
				if err != nil {
					return Neighborhood{}, err
				}
				nb.Entities = append(nb.Entities, NeighborhoodEntity{Entity: other, Depth: depth})
				next = append(next, otherID)
			}
		}
		// Frontier order determines which nodes win the limit race, so
		// keep it deterministic.
		sort.Strings(next)
		frontier = next
	}

	return nb, nil
}

// neighborRelations fetches the live relations attached to one node in
// the requested direction, in deterministic order.
func neighborRelations(ctx context.Context, db dbtx, nodeID string, dir Direction, kind string) ([]model.Relation, error) {
	var where string
	args := []any{}
	switch dir {
	case DirectionOut:
		where = `source_id = ?`
		args = append(args, nodeID)
	case DirectionIn:
		where = `target_id = ?`
		args = append(args, nodeID)
	default:
		where = `(source_id = ? OR target_id = ?)`
		args = append(args, nodeID, nodeID)
	}
	query := `SELECT ` + relationColumns + ` FROM relations WHERE ` + where + ` AND unlinked_at IS NULL`
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at ASC, id COLLATE BINARY ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, model.WrapInternal(err, "explore: relations of %s", nodeID)
	}
	defer rows.Close()
	return collectRelations(rows)
}
