package graph

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/softgrove/graft/internal/model"
)

// entityColumns is the canonical column list for scanning entities.
const entityColumns = `id, type, attrs, version, created_at, updated_at, forgotten_at`

// CreateEntity inserts a new entity inside the staged transaction.
func (t *Tx) CreateEntity(ctx context.Context, entityType string, attrs model.Attrs) (model.Entity, error) {
	if entityType == "" {
		return model.Entity{}, model.NewInvalidArgument("create entity: type is required")
	}

	attrsJSON, err := model.EncodeAttrs(attrs)
	if err != nil {
		return model.Entity{}, model.NewInvalidArgument("create entity: attrs are not JSON-representable: %v", err)
	}

	now := t.store.clock.Now()
	e := model.Entity{
		ID:        t.store.newID(),
		Type:      entityType,
		Attrs:     attrs.Clone(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO entities (id, type, attrs, version, created_at, updated_at, forgotten_at)
		VALUES (?, ?, ?, 1, ?, ?, NULL)
	`, e.ID, e.Type, attrsJSON, now.UnixMicro(), now.UnixMicro())
	if err != nil {
		return model.Entity{}, model.WrapInternal(err, "create entity: insert")
	}
	return e, nil
}

// GetEntity returns the entity with the given id.
// Forgotten entities are treated as absent: not_found either way.
func (s *Store) GetEntity(ctx context.Context, id string) (model.Entity, error) {
	return getEntity(ctx, s.db, id, false)
}

// GetEntity is the in-transaction variant; it observes staged writes.
func (t *Tx) GetEntity(ctx context.Context, id string) (model.Entity, error) {
	return getEntity(ctx, t.tx, id, false)
}

// GetEntityAny returns the entity even when forgotten. The causal tracer
// uses this so history can pass through tombstoned nodes.
func (s *Store) GetEntityAny(ctx context.Context, id string) (model.Entity, error) {
	return getEntity(ctx, s.db, id, true)
}

// GetEntityAny is the in-transaction variant; it observes staged writes.
func (t *Tx) GetEntityAny(ctx context.Context, id string) (model.Entity, error) {
	return getEntity(ctx, t.tx, id, true)
}

// EditEntity applies set/unset attribute edits inside the staged
// transaction, bumping version and updated_at. Editing a forgotten or
// absent entity is not_found.
func (t *Tx) EditEntity(ctx context.Context, id string, set model.Attrs, unset []string) (model.Entity, error) {
	if len(set) == 0 && len(unset) == 0 {
		return model.Entity{}, model.NewInvalidArgument("edit entity: nothing to change")
	}

	e, err := getEntity(ctx, t.tx, id, false)
	if err != nil {
		return model.Entity{}, err
	}

	e.Attrs = e.Attrs.Merge(set, unset)
	e.Version++
	e.UpdatedAt = t.store.clock.Now()

	attrsJSON, err := model.EncodeAttrs(e.Attrs)
	if err != nil {
		return model.Entity{}, model.NewInvalidArgument("edit entity: attrs are not JSON-representable: %v", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		UPDATE entities SET attrs = ?, version = ?, updated_at = ?
		WHERE id = ? AND forgotten_at IS NULL
	`, attrsJSON, e.Version, e.UpdatedAt.UnixMicro(), id)
	if err != nil {
		return model.Entity{}, model.WrapInternal(err, "edit entity: update")
	}
	return e, nil
}

// ForgetEntity soft-deletes an entity. Without force, live relations
// touching the entity make this a conflict so referential integrity is
// preserved; with force the relations stay live and the entity is
// tombstoned anyway.
func (t *Tx) ForgetEntity(ctx context.Context, id string, force bool) error {
	if _, err := getEntity(ctx, t.tx, id, false); err != nil {
		return err
	}

	if !force {
		var live int
		err := t.tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM relations
			WHERE (source_id = ? OR target_id = ?) AND unlinked_at IS NULL
		`, id, id).Scan(&live)
		if err != nil {
			return model.WrapInternal(err, "forget entity: count live relations")
		}
		if live > 0 {
			return model.NewConflict("entity %s has %d live relations; unlink them or pass force", id, live).
				WithDetail("live_relations", strconv.Itoa(live))
		}
	}

	now := t.store.clock.Now()
	_, err := t.tx.ExecContext(ctx, `
		UPDATE entities SET forgotten_at = ?, updated_at = ?
		WHERE id = ? AND forgotten_at IS NULL
	`, now.UnixMicro(), now.UnixMicro(), id)
	if err != nil {
		return model.WrapInternal(err, "forget entity: tombstone")
	}
	return nil
}

func getEntity(ctx context.Context, q dbtx, id string, includeForgotten bool) (model.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE id = ?`
	if !includeForgotten {
		query += ` AND forgotten_at IS NULL`
	}
	row := q.QueryRowContext(ctx, query, id)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Entity{}, model.NewNotFound("entity %s", id)
	}
	if err != nil {
		return model.Entity{}, model.WrapInternal(err, "get entity")
	}
	return e, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (model.Entity, error) {
	var (
		e              model.Entity
		attrsJSON      string
		createdMicro   int64
		updatedMicro   int64
		forgottenMicro sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.Type, &attrsJSON, &e.Version, &createdMicro, &updatedMicro, &forgottenMicro)
	if err != nil {
		return model.Entity{}, err
	}

	attrs, err := model.DecodeAttrs(attrsJSON)
	if err != nil {
		return model.Entity{}, err
	}
	e.Attrs = attrs
	e.CreatedAt = time.UnixMicro(createdMicro).UTC()
	e.UpdatedAt = time.UnixMicro(updatedMicro).UTC()
	if forgottenMicro.Valid {
		at := time.UnixMicro(forgottenMicro.Int64).UTC()
		e.ForgottenAt = &at
	}
	return e, nil
}
