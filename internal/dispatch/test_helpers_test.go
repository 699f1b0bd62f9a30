package dispatch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softgrove/graft/internal/graph"
	"github.com/softgrove/graft/internal/ledger"
	"github.com/softgrove/graft/internal/model"
	"github.com/softgrove/graft/internal/scope"
	"github.com/softgrove/graft/internal/testutil"
	"github.com/softgrove/graft/internal/trace"
	"github.com/softgrove/graft/internal/txn"
)

// newTestDispatcher wires a full dispatcher over temp stores with pinned
// clocks and sequential ids. The envelope clock is frozen so golden
// output never depends on how many operations ran.
func newTestDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	dir := t.TempDir()

	g, err := graph.Open(filepath.Join(dir, "graph.db"),
		graph.WithClock(testutil.NewTestClock()),
		graph.WithIDGenerator(testutil.SequentialIDs("node")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	l, err := ledger.Open(filepath.Join(dir, "ledger.db"),
		ledger.WithClock(testutil.NewTestClock()),
		ledger.WithIDGenerator(testutil.SequentialIDs("fact")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	s := scope.NewManager(scope.WithClock(testutil.NewTestClock()))
	coord := txn.New(g, l, s)
	tracer := trace.New(g, l)

	opts = append([]Option{WithClock(testutil.NewFixedClock(testutil.BaseTime, 0))}, opts...)
	return New(coord, g, l, s, tracer, opts...)
}

// ok dispatches and requires a success envelope, returning its result.
func ok(t *testing.T, d *Dispatcher, op string, p Payload, actor string) any {
	t.Helper()
	env := d.Dispatch(context.Background(), op, p, actor)
	require.True(t, env.OK, "%s failed: %+v", op, env.Error)
	return env.Result
}

// fail dispatches and requires a failure envelope of the given kind.
func fail(t *testing.T, d *Dispatcher, op string, p Payload, actor string, kind model.ErrorKind) *ErrorInfo {
	t.Helper()
	env := d.Dispatch(context.Background(), op, p, actor)
	require.False(t, env.OK, "%s unexpectedly succeeded", op)
	require.Equal(t, string(kind), env.Error.Kind, "wrong kind: %+v", env.Error)
	return env.Error
}

// entityID digs the id out of an entity result.
func entityID(t *testing.T, result any) string {
	t.Helper()
	e, isEntity := result.(model.Entity)
	require.True(t, isEntity, "result is %T, want model.Entity", result)
	return e.ID
}
