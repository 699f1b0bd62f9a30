package scope

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/graft/internal/model"
	"github.com/softgrove/graft/internal/testutil"
)

func newTestManager(opts ...Option) *Manager {
	opts = append([]Option{WithClock(testutil.NewTestClock())}, opts...)
	return NewManager(opts...)
}

// enter commits one enter_scope through its own stage, the way the
// coordinator drives it.
func enter(t *testing.T, m *Manager, owner, scopeID string) model.Frame {
	t.Helper()
	release, err := m.Lock(context.Background(), owner)
	require.NoError(t, err)
	defer release()

	stage := m.Begin(owner)
	f, err := stage.EnterScope(scopeID)
	require.NoError(t, err)
	stage.Commit()
	return f
}

func TestFirstScopeBecomesPrimary(t *testing.T) {
	m := newTestManager()

	f := enter(t, m, "u1", "work")
	assert.True(t, f.Primary)

	primary, ok := m.Primary("u1")
	require.True(t, ok)
	assert.Equal(t, "work", primary)
}

func TestEnterIsIdempotent(t *testing.T) {
	m := newTestManager()

	f1 := enter(t, m, "u1", "work")
	f2 := enter(t, m, "u1", "work")

	assert.Equal(t, f1.EnteredAt, f2.EnteredAt)
	assert.Equal(t, []string{"work"}, m.Active("u1"))
}

func TestSecondEnterDoesNotStealPrimary(t *testing.T) {
	m := newTestManager()

	enter(t, m, "u1", "work")
	f := enter(t, m, "u1", "home")

	assert.False(t, f.Primary)
	primary, ok := m.Primary("u1")
	require.True(t, ok)
	assert.Equal(t, "work", primary)
	assert.Equal(t, []string{"home", "work"}, m.Active("u1"))
}

func TestFocusMovesPrimary(t *testing.T) {
	m := newTestManager()
	enter(t, m, "u1", "work")
	enter(t, m, "u1", "home")

	release, err := m.Lock(context.Background(), "u1")
	require.NoError(t, err)
	stage := m.Begin("u1")
	f, err := stage.FocusScope("home")
	require.NoError(t, err)
	assert.True(t, f.Primary)
	stage.Commit()
	release()

	primary, ok := m.Primary("u1")
	require.True(t, ok)
	assert.Equal(t, "home", primary)

	// Exactly one frame carries the primary flag.
	var primaries int
	for _, fr := range m.Frames("u1") {
		if fr.Primary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestFocusNotActiveFails(t *testing.T) {
	m := newTestManager()
	enter(t, m, "u1", "work")

	release, err := m.Lock(context.Background(), "u1")
	require.NoError(t, err)
	defer release()

	stage := m.Begin("u1")
	_, err = stage.FocusScope("home")
	assert.True(t, model.IsNotActive(err))

	// State unchanged.
	primary, ok := m.Primary("u1")
	require.True(t, ok)
	assert.Equal(t, "work", primary)
}

func TestLeavePrimaryClearsWithoutPromotion(t *testing.T) {
	m := newTestManager()
	enter(t, m, "u1", "work")
	enter(t, m, "u1", "home")

	release, err := m.Lock(context.Background(), "u1")
	require.NoError(t, err)
	stage := m.Begin("u1")
	_, err = stage.LeaveScope("work")
	require.NoError(t, err)
	stage.Commit()
	release()

	assert.Equal(t, []string{"home"}, m.Active("u1"))
	_, ok := m.Primary("u1")
	assert.False(t, ok, "primary must be cleared, not re-promoted")
}

func TestLeaveNonPrimaryKeepsPrimary(t *testing.T) {
	m := newTestManager()
	enter(t, m, "u1", "work")
	enter(t, m, "u1", "home")

	release, err := m.Lock(context.Background(), "u1")
	require.NoError(t, err)
	stage := m.Begin("u1")
	_, err = stage.LeaveScope("home")
	require.NoError(t, err)
	stage.Commit()
	release()

	primary, ok := m.Primary("u1")
	require.True(t, ok)
	assert.Equal(t, "work", primary)
}

func TestLeaveNotActiveFails(t *testing.T) {
	m := newTestManager()

	release, err := m.Lock(context.Background(), "u1")
	require.NoError(t, err)
	defer release()

	stage := m.Begin("u1")
	_, err = stage.LeaveScope("work")
	assert.True(t, model.IsNotActive(err))
}

func TestAbortedStageLeavesStateUntouched(t *testing.T) {
	m := newTestManager()
	enter(t, m, "u1", "work")

	release, err := m.Lock(context.Background(), "u1")
	require.NoError(t, err)
	stage := m.Begin("u1")
	_, err = stage.EnterScope("home")
	require.NoError(t, err)
	_, err = stage.FocusScope("home")
	require.NoError(t, err)
	stage.Abort()
	release()

	assert.Equal(t, []string{"work"}, m.Active("u1"))
	primary, ok := m.Primary("u1")
	require.True(t, ok)
	assert.Equal(t, "work", primary)
}

func TestFrameCapacity(t *testing.T) {
	m := newTestManager(WithMaxFrames(2))
	enter(t, m, "u1", "a")
	enter(t, m, "u1", "b")

	release, err := m.Lock(context.Background(), "u1")
	require.NoError(t, err)
	defer release()

	stage := m.Begin("u1")
	_, err = stage.EnterScope("c")
	assert.True(t, model.IsConflict(err))

	// Re-entering an active scope is still fine at the cap.
	_, err = stage.EnterScope("a")
	assert.NoError(t, err)
}

func TestOwnersAreIndependent(t *testing.T) {
	m := newTestManager()
	enter(t, m, "u1", "work")
	enter(t, m, "u2", "home")

	assert.Equal(t, []string{"work"}, m.Active("u1"))
	assert.Equal(t, []string{"home"}, m.Active("u2"))

	p1, _ := m.Primary("u1")
	p2, _ := m.Primary("u2")
	assert.Equal(t, "work", p1)
	assert.Equal(t, "home", p2)
}

func TestLockTimesOutFailFast(t *testing.T) {
	m := newTestManager(WithLockTimeout(50 * time.Millisecond))

	release, err := m.Lock(context.Background(), "u1")
	require.NoError(t, err)
	defer release()

	start := time.Now()
	_, err = m.Lock(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, model.ErrInternal, model.KindOf(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestConcurrentEntersProduceOneFrame(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Lock(ctx, "u1")
			if err != nil {
				t.Error(err)
				return
			}
			defer release()

			stage := m.Begin("u1")
			if _, err := stage.EnterScope("work"); err != nil {
				t.Error(err)
				return
			}
			stage.Commit()
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"work"}, m.Active("u1"))
	primary, ok := m.Primary("u1")
	require.True(t, ok)
	assert.Equal(t, "work", primary)
}
