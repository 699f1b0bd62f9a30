package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softgrove/graft/internal/model"
	"github.com/softgrove/graft/internal/testutil"
)

// createTestStore opens a ledger in a temp dir with pinned time and
// sequential fact ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path,
		WithClock(testutil.NewTestClock()),
		WithIDGenerator(testutil.SequentialIDs("fact")),
	)
	require.NoError(t, err, "Open() failed")
	t.Cleanup(func() { s.Close() })
	return s
}

// mustAppend commits one fact through its own short transaction.
func mustAppend(t *testing.T, s *Store, req AppendRequest) model.Fact {
	t.Helper()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	f, err := tx.Append(ctx, req)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return f
}

// tryAppend runs one append in a transaction, rolling back on error.
func tryAppend(t *testing.T, s *Store, req AppendRequest) (model.Fact, error) {
	t.Helper()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	f, err := tx.Append(ctx, req)
	if err != nil {
		return model.Fact{}, err
	}
	require.NoError(t, tx.Commit())
	return f, nil
}
