package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/graft/internal/model"
)

func TestQueryReturnsInsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	f1 := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "a"})
	f2 := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "status", Payload: "b"})
	f3 := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "c"})
	mustAppend(t, s, AppendRequest{SubjectID: "ent-2", FactType: "note", Payload: "other subject"})

	facts, err := s.Query(ctx, QueryRequest{SubjectID: "ent-1"})
	require.NoError(t, err)
	require.Len(t, facts, 3)
	assert.Equal(t, []string{f1.ID, f2.ID, f3.ID}, []string{facts[0].ID, facts[1].ID, facts[2].ID})
}

func TestQueryFiltersByFactType(t *testing.T) {
	s := createTestStore(t)

	mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "a"})
	mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "status", Payload: "b"})

	facts, err := s.Query(context.Background(), QueryRequest{SubjectID: "ent-1", FactType: "status"})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "status", facts[0].FactType)
}

func TestQueryMarksCurrentFact(t *testing.T) {
	s := createTestStore(t)

	f1 := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "v1"})
	f2 := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "v2", Amends: f1.ID})

	facts, err := s.Query(context.Background(), QueryRequest{SubjectID: "ent-1"})
	require.NoError(t, err)
	require.Len(t, facts, 2)

	assert.Equal(t, f1.ID, facts[0].ID)
	assert.False(t, facts[0].Current())
	assert.Equal(t, f2.ID, facts[1].ID)
	assert.True(t, facts[1].Current())
}

func TestQueryEmptyResultIsEmptySlice(t *testing.T) {
	s := createTestStore(t)

	facts, err := s.Query(context.Background(), QueryRequest{SubjectID: "ent-none"})
	require.NoError(t, err)
	assert.NotNil(t, facts)
	assert.Empty(t, facts)
}

func TestQueryRequiresSubject(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Query(context.Background(), QueryRequest{})
	assert.True(t, model.IsInvalidArgument(err))
}

func TestGetUnknownFactIsNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), "fact-nope")
	assert.True(t, model.IsNotFound(err))
}

func TestHistoryReturnsWholeChainFromAnyMember(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	f1 := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "v1"})
	f2 := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "v2", Amends: f1.ID})
	f3 := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "v3", Amends: f2.ID})
	mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "unrelated"})

	want := []string{f1.ID, f2.ID, f3.ID}

	for _, member := range want {
		chain, err := s.History(ctx, member)
		require.NoError(t, err)
		require.Len(t, chain, 3, "history from %s", member)
		got := []string{chain[0].ID, chain[1].ID, chain[2].ID}
		assert.Equal(t, want, got, "history from %s must be oldest first", member)
	}
}

func TestHistoryUnknownFactIsNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.History(context.Background(), "fact-nope")
	assert.True(t, model.IsNotFound(err))
}

func TestHistorySingleFactChain(t *testing.T) {
	s := createTestStore(t)

	f := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "only"})

	chain, err := s.History(context.Background(), f.ID)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, f.ID, chain[0].ID)
}

func TestAmendmentsOf(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	f1 := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "v1"})
	f2 := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "v2", Amends: f1.ID})
	f3 := mustAppend(t, s, AppendRequest{SubjectID: "ent-1", FactType: "note", Payload: "v3", Amends: f1.ID})

	amendments, err := s.AmendmentsOf(ctx, f1.ID)
	require.NoError(t, err)
	require.Len(t, amendments, 2)
	assert.Equal(t, f2.ID, amendments[0].ID)
	assert.Equal(t, f3.ID, amendments[1].ID)

	none, err := s.AmendmentsOf(ctx, f3.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
