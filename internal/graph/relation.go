package graph

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/softgrove/graft/internal/model"
)

// relationColumns is the canonical column list for scanning relations.
const relationColumns = `id, kind, source_id, target_id, attrs, created_at, unlinked_at`

// Link creates a typed directed relation inside the staged transaction.
// Both endpoints must exist and be non-forgotten at link time.
func (t *Tx) Link(ctx context.Context, kind, sourceID, targetID string, attrs model.Attrs) (model.Relation, error) {
	if kind == "" {
		return model.Relation{}, model.NewInvalidArgument("link: kind is required")
	}
	if sourceID == "" || targetID == "" {
		return model.Relation{}, model.NewInvalidArgument("link: source and target are required")
	}

	// Endpoint checks observe staged writes, so linking an entity created
	// earlier in the same operation works.
	if _, err := getEntity(ctx, t.tx, sourceID, false); err != nil {
		return model.Relation{}, err
	}
	if _, err := getEntity(ctx, t.tx, targetID, false); err != nil {
		return model.Relation{}, err
	}

	attrsJSON, err := model.EncodeAttrs(attrs)
	if err != nil {
		return model.Relation{}, model.NewInvalidArgument("link: attrs are not JSON-representable: %v", err)
	}

	r := model.Relation{
		ID:        t.store.newID(),
		Kind:      kind,
		SourceID:  sourceID,
		TargetID:  targetID,
		Attrs:     attrs.Clone(),
		CreatedAt: t.store.clock.Now(),
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO relations (id, kind, source_id, target_id, attrs, created_at, unlinked_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL)
	`, r.ID, r.Kind, r.SourceID, r.TargetID, attrsJSON, r.CreatedAt.UnixMicro())
	if err != nil {
		return model.Relation{}, model.WrapInternal(err, "link: insert")
	}
	return r, nil
}

// Unlink soft-removes a relation by setting unlinked_at. The row stays
// readable for history. Unlinking an already-unlinked or absent relation
// is not_found.
func (t *Tx) Unlink(ctx context.Context, id string) error {
	r, err := getRelation(ctx, t.tx, id)
	if err != nil {
		return err
	}
	if !r.Alive() {
		return model.NewNotFound("relation %s is already unlinked", id)
	}

	_, err = t.tx.ExecContext(ctx, `
		UPDATE relations SET unlinked_at = ? WHERE id = ? AND unlinked_at IS NULL
	`, t.store.clock.Now().UnixMicro(), id)
	if err != nil {
		return model.WrapInternal(err, "unlink: tombstone")
	}
	return nil
}

// EditRelation applies set/unset attribute edits to a live relation.
func (t *Tx) EditRelation(ctx context.Context, id string, set model.Attrs, unset []string) (model.Relation, error) {
	if len(set) == 0 && len(unset) == 0 {
		return model.Relation{}, model.NewInvalidArgument("edit relation: nothing to change")
	}

	r, err := getRelation(ctx, t.tx, id)
	if err != nil {
		return model.Relation{}, err
	}
	if !r.Alive() {
		return model.Relation{}, model.NewNotFound("relation %s is unlinked", id)
	}

	r.Attrs = r.Attrs.Merge(set, unset)
	attrsJSON, err := model.EncodeAttrs(r.Attrs)
	if err != nil {
		return model.Relation{}, model.NewInvalidArgument("edit relation: attrs are not JSON-representable: %v", err)
	}

	if _, err := t.tx.ExecContext(ctx, `UPDATE relations SET attrs = ? WHERE id = ?`, attrsJSON, id); err != nil {
		return model.Relation{}, model.WrapInternal(err, "edit relation: update")
	}
	return r, nil
}

// GetRelation returns the relation with the given id, unlinked or not.
// Callers that need live rows only check Alive themselves.
func (s *Store) GetRelation(ctx context.Context, id string) (model.Relation, error) {
	return getRelation(ctx, s.db, id)
}

// GetRelation is the in-transaction variant; it observes staged writes.
func (t *Tx) GetRelation(ctx context.Context, id string) (model.Relation, error) {
	return getRelation(ctx, t.tx, id)
}

// RelationsInto returns the live relations whose target endpoint is the
// given entity, in creation order. The causal tracer walks these to find
// what contributed to an entity.
func (s *Store) RelationsInto(ctx context.Context, targetID string) ([]model.Relation, error) {
	return relationsInto(ctx, s.db, targetID)
}

// RelationsInto is the in-transaction variant; it observes staged writes.
func (t *Tx) RelationsInto(ctx context.Context, targetID string) ([]model.Relation, error) {
	return relationsInto(ctx, t.tx, targetID)
}

func relationsInto(ctx context.Context, q dbtx, targetID string) ([]model.Relation, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+relationColumns+` FROM relations
		WHERE target_id = ? AND unlinked_at IS NULL
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`, targetID)
	if err != nil {
		return nil, model.WrapInternal(err, "relations into %s", targetID)
	}
	defer rows.Close()
	return collectRelations(rows)
}

func getRelation(ctx context.Context, q dbtx, id string) (model.Relation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+relationColumns+` FROM relations WHERE id = ?`, id)
	r, err := scanRelation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Relation{}, model.NewNotFound("relation %s", id)
	}
	if err != nil {
		return model.Relation{}, model.WrapInternal(err, "get relation")
	}
	return r, nil
}

func scanRelation(row rowScanner) (model.Relation, error) {
	var (
		r             model.Relation
		attrsJSON     string
		createdMicro  int64
		unlinkedMicro sql.NullInt64
	)
	err := row.Scan(&r.ID, &r.Kind, &r.SourceID, &r.TargetID, &attrsJSON, &createdMicro, &unlinkedMicro)
	if err != nil {
		return model.Relation{}, err
	}

	attrs, err := model.DecodeAttrs(attrsJSON)
	if err != nil {
		return model.Relation{}, err
	}
	if len(attrs) > 0 {
		r.Attrs = attrs
	}
	r.CreatedAt = time.UnixMicro(createdMicro).UTC()
	if unlinkedMicro.Valid {
		at := time.UnixMicro(unlinkedMicro.Int64).UTC()
		r.UnlinkedAt = &at
	}
	return r, nil
}

// collectRelations drains rows into a slice. Returns an empty slice, not
// nil, when there are no rows.
func collectRelations(rows *sql.Rows) ([]model.Relation, error) {
	relations := make([]model.Relation, 0)
	for rows.Next() {
		r, err := scanRelation(rows)
		if err != nil {
			return nil, model.WrapInternal(err, "scan relation")
		}
		relations = append(relations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, model.WrapInternal(err, "iterate relations")
	}
	return relations, nil
}
