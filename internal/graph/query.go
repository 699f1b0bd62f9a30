package graph

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/softgrove/graft/internal/model"
)

// EntityQuery filters entities. All predicates are ANDed. Forgotten
// entities are always excluded.
type EntityQuery struct {
	// Type narrows to one entity type when non-empty.
	Type string

	// Filters are attribute equality predicates compiled to
	// json_extract comparisons. Keys are attribute names.
	Filters model.Attrs

	// Offset and Limit paginate. A zero Limit means no limit.
	Offset int
	Limit  int
}

// RelationQuery filters relations. All predicates are ANDed.
type RelationQuery struct {
	Kind     string
	SourceID string
	TargetID string

	// AliveOnly excludes unlinked relations when true.
	AliveOnly bool

	Limit int
}

// QueryEntities returns entities matching the query in deterministic
// order (created_at, then id COLLATE BINARY). All filter values are
// parameterized, never interpolated.
func (s *Store) QueryEntities(ctx context.Context, q EntityQuery) ([]model.Entity, error) {
	return queryEntities(ctx, s.db, q)
}

// QueryEntities is the in-transaction variant; it observes staged writes.
func (t *Tx) QueryEntities(ctx context.Context, q EntityQuery) ([]model.Entity, error) {
	return queryEntities(ctx, t.tx, q)
}

// QueryRelations returns relations matching the query in deterministic
// order.
func (s *Store) QueryRelations(ctx context.Context, q RelationQuery) ([]model.Relation, error) {
	return queryRelations(ctx, s.db, q)
}

// QueryRelations is the in-transaction variant; it observes staged writes.
func (t *Tx) QueryRelations(ctx context.Context, q RelationQuery) ([]model.Relation, error) {
	return queryRelations(ctx, t.tx, q)
}

func queryEntities(ctx context.Context, db dbtx, q EntityQuery) ([]model.Entity, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + entityColumns + ` FROM entities WHERE forgotten_at IS NULL`)
	var args []any

	if q.Type != "" {
		sb.WriteString(` AND type = ?`)
		args = append(args, q.Type)
	}

	// Filter keys are sorted so the compiled SQL is deterministic for a
	// given query, which keeps query plans and test output stable.
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val, err := filterParam(q.Filters[key])
		if err != nil {
			return nil, model.NewInvalidArgument("query entities: filter %q: %v", key, err)
		}
		sb.WriteString(` AND json_extract(attrs, ?) = ?`)
		args = append(args, "$."+key, val)
	}

	sb.WriteString(` ORDER BY created_at ASC, id COLLATE BINARY ASC`)

	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	} else if q.Offset > 0 {
		// SQLite requires LIMIT before OFFSET; -1 means unbounded.
		sb.WriteString(` LIMIT -1`)
	}
	if q.Offset > 0 {
		sb.WriteString(` OFFSET ?`)
		args = append(args, q.Offset)
	}

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, model.WrapInternal(err, "query entities")
	}
	defer rows.Close()

	entities := make([]model.Entity, 0)
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, model.WrapInternal(err, "scan entity")
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, model.WrapInternal(err, "iterate entities")
	}
	return entities, nil
}

func queryRelations(ctx context.Context, db dbtx, q RelationQuery) ([]model.Relation, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + relationColumns + ` FROM relations WHERE 1=1`)
	var args []any

	if q.Kind != "" {
		sb.WriteString(` AND kind = ?`)
		args = append(args, q.Kind)
	}
	if q.SourceID != "" {
		sb.WriteString(` AND source_id = ?`)
		args = append(args, q.SourceID)
	}
	if q.TargetID != "" {
		sb.WriteString(` AND target_id = ?`)
		args = append(args, q.TargetID)
	}
	if q.AliveOnly {
		sb.WriteString(` AND unlinked_at IS NULL`)
	}

	sb.WriteString(` ORDER BY created_at ASC, id COLLATE BINARY ASC`)

	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, model.WrapInternal(err, "query relations")
	}
	defer rows.Close()
	return collectRelations(rows)
}

// filterParam converts a filter value into a driver-friendly parameter
// comparable against json_extract output. Scalars pass through; nested
// objects and arrays are rejected (equality over structures is not
// supported).
func filterParam(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, int, int64, float64:
		return val, nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		return val.Float64()
	default:
		return nil, model.NewInvalidArgument("unsupported filter value type %T", v)
	}
}
