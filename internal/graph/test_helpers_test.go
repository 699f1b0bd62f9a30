package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softgrove/graft/internal/model"
	"github.com/softgrove/graft/internal/testutil"
)

// createTestStore opens a graph store in a temp dir with a pinned clock
// and sequential ids, so timestamps and identifiers are reproducible.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(path,
		WithClock(testutil.NewTestClock()),
		WithIDGenerator(testutil.SequentialIDs("node")),
	)
	require.NoError(t, err, "Open() failed")
	t.Cleanup(func() { s.Close() })
	return s
}

// mustCreate commits one entity through its own short transaction.
func mustCreate(t *testing.T, s *Store, entityType string, attrs model.Attrs) model.Entity {
	t.Helper()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	e, err := tx.CreateEntity(ctx, entityType, attrs)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return e
}

// mustLink commits one relation through its own short transaction.
func mustLink(t *testing.T, s *Store, kind, sourceID, targetID string) model.Relation {
	t.Helper()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	r, err := tx.Link(ctx, kind, sourceID, targetID, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return r
}

// inTx runs fn inside a transaction that commits on success and rolls
// back when fn returns an error, returning that error.
func inTx(t *testing.T, s *Store, fn func(tx *Tx) error) error {
	t.Helper()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	if err := fn(tx); err != nil {
		require.NoError(t, tx.Rollback())
		return err
	}
	require.NoError(t, tx.Commit())
	return nil
}
