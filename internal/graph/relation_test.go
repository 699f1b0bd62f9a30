package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/graft/internal/model"
)

func TestLinkRequiresLiveEndpoints(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, "person", nil)

	err := inTx(t, s, func(tx *Tx) error {
		_, err := tx.Link(ctx, "knows", a.ID, "node-nope", nil)
		return err
	})
	assert.True(t, model.IsNotFound(err))

	b := mustCreate(t, s, "person", nil)
	require.NoError(t, inTx(t, s, func(tx *Tx) error {
		return tx.ForgetEntity(ctx, b.ID, false)
	}))

	err = inTx(t, s, func(tx *Tx) error {
		_, err := tx.Link(ctx, "knows", a.ID, b.ID, nil)
		return err
	})
	assert.True(t, model.IsNotFound(err))
}

func TestLinkToEntityCreatedInSameTx(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var r model.Relation
	require.NoError(t, inTx(t, s, func(tx *Tx) error {
		a, err := tx.CreateEntity(ctx, "person", nil)
		if err != nil {
			return err
		}
		b, err := tx.CreateEntity(ctx, "person", nil)
		if err != nil {
			return err
		}
		r, err = tx.Link(ctx, "knows", a.ID, b.ID, model.Attrs{"since": 2020})
		return err
	}))

	got, err := s.GetRelation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "knows", got.Kind)
	assert.True(t, got.Alive())
}

func TestUnlinkIsSoft(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, "person", nil)
	b := mustCreate(t, s, "person", nil)
	r := mustLink(t, s, "knows", a.ID, b.ID)

	require.NoError(t, inTx(t, s, func(tx *Tx) error {
		return tx.Unlink(ctx, r.ID)
	}))

	got, err := s.GetRelation(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, got.Alive())
	require.NotNil(t, got.UnlinkedAt)

	// Unlinking twice is not_found.
	err = inTx(t, s, func(tx *Tx) error {
		return tx.Unlink(ctx, r.ID)
	})
	assert.True(t, model.IsNotFound(err))
}

func TestEditRelationAttrs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, "person", nil)
	b := mustCreate(t, s, "person", nil)
	r := mustLink(t, s, "knows", a.ID, b.ID)

	require.NoError(t, inTx(t, s, func(tx *Tx) error {
		_, err := tx.EditRelation(ctx, r.ID, model.Attrs{"strength": "close"}, nil)
		return err
	}))

	got, err := s.GetRelation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "close", got.Attrs["strength"])
}

func TestRelationsIntoOrdersByCreation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	hub := mustCreate(t, s, "project", nil)
	a := mustCreate(t, s, "person", nil)
	b := mustCreate(t, s, "person", nil)

	r1 := mustLink(t, s, "works_on", a.ID, hub.ID)
	r2 := mustLink(t, s, "works_on", b.ID, hub.ID)

	// Outgoing edge from the hub must not show up.
	mustLink(t, s, "references", hub.ID, a.ID)

	into, err := s.RelationsInto(ctx, hub.ID)
	require.NoError(t, err)
	require.Len(t, into, 2)
	assert.Equal(t, r1.ID, into[0].ID)
	assert.Equal(t, r2.ID, into[1].ID)
}
