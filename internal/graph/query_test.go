package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/graft/internal/model"
)

func TestQueryEntitiesByType(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	p1 := mustCreate(t, s, "person", model.Attrs{"name": "Ada"})
	mustCreate(t, s, "project", nil)
	p2 := mustCreate(t, s, "person", model.Attrs{"name": "Grace"})

	got, err := s.QueryEntities(ctx, EntityQuery{Type: "person"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, p1.ID, got[0].ID)
	assert.Equal(t, p2.ID, got[1].ID)
}

func TestQueryEntitiesAttributeFilters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ada := mustCreate(t, s, "person", model.Attrs{"name": "Ada", "century": 19})
	mustCreate(t, s, "person", model.Attrs{"name": "Grace", "century": 20})

	got, err := s.QueryEntities(ctx, EntityQuery{
		Type:    "person",
		Filters: model.Attrs{"name": "Ada", "century": 19},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ada.ID, got[0].ID)
}

func TestQueryEntitiesRejectsStructuredFilter(t *testing.T) {
	s := createTestStore(t)

	_, err := s.QueryEntities(context.Background(), EntityQuery{
		Filters: model.Attrs{"tags": []any{"a"}},
	})
	assert.True(t, model.IsInvalidArgument(err))
}

func TestQueryEntitiesPagination(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, mustCreate(t, s, "person", nil).ID)
	}

	page, err := s.QueryEntities(ctx, EntityQuery{Type: "person", Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[1], page[0].ID)
	assert.Equal(t, ids[2], page[1].ID)

	// Offset without limit pages to the end.
	tail, err := s.QueryEntities(ctx, EntityQuery{Type: "person", Offset: 3})
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, ids[3], tail[0].ID)
}

func TestQueryEntitiesExcludesForgotten(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	keep := mustCreate(t, s, "person", nil)
	gone := mustCreate(t, s, "person", nil)
	require.NoError(t, inTx(t, s, func(tx *Tx) error {
		return tx.ForgetEntity(ctx, gone.ID, false)
	}))

	got, err := s.QueryEntities(ctx, EntityQuery{Type: "person"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)
}

func TestQueryRelationsFilters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, "person", nil)
	b := mustCreate(t, s, "person", nil)
	c := mustCreate(t, s, "project", nil)

	knows := mustLink(t, s, "knows", a.ID, b.ID)
	works := mustLink(t, s, "works_on", a.ID, c.ID)
	require.NoError(t, inTx(t, s, func(tx *Tx) error {
		return tx.Unlink(ctx, works.ID)
	}))

	bySource, err := s.QueryRelations(ctx, RelationQuery{SourceID: a.ID})
	require.NoError(t, err)
	assert.Len(t, bySource, 2)

	alive, err := s.QueryRelations(ctx, RelationQuery{SourceID: a.ID, AliveOnly: true})
	require.NoError(t, err)
	require.Len(t, alive, 1)
	assert.Equal(t, knows.ID, alive[0].ID)

	byKind, err := s.QueryRelations(ctx, RelationQuery{Kind: "works_on"})
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	assert.Equal(t, works.ID, byKind[0].ID)
}
