package scope

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/softgrove/graft/internal/model"
)

// DefaultMaxFrames caps active frames per owner when no explicit cap is
// configured.
const DefaultMaxFrames = 32

// DefaultLockTimeout bounds how long an operation waits for an owner's
// lock before failing fast.
const DefaultLockTimeout = 5 * time.Second

// Manager owns all context frames, keyed by owner.
type Manager struct {
	mu     sync.Mutex
	owners map[string]*ownerState

	clock       model.Clock
	maxFrames   int
	lockTimeout time.Duration
}

// ownerState is one owner's entry: the serialization lock plus the
// committed frame table.
type ownerState struct {
	sem     *semaphore.Weighted
	frames  map[string]model.Frame // keyed by scope
	primary string                 // "" when no primary
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the timestamp source for entered_at.
func WithClock(c model.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithMaxFrames sets the per-owner active frame cap. Zero or negative
// keeps the default.
func WithMaxFrames(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxFrames = n
		}
	}
}

// WithLockTimeout sets the per-owner lock acquisition bound. Zero or
// negative keeps the default.
func WithLockTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.lockTimeout = d
		}
	}
}

// NewManager creates an empty context manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		owners:      make(map[string]*ownerState),
		clock:       model.SystemClock{},
		maxFrames:   DefaultMaxFrames,
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ownerStateFor returns the owner's entry, creating it on first use.
func (m *Manager) ownerStateFor(owner string) *ownerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.owners[owner]
	if !ok {
		st = &ownerState{
			sem:    semaphore.NewWeighted(1),
			frames: make(map[string]model.Frame),
		}
		m.owners[owner] = st
	}
	return st
}

// Lock acquires the owner's exclusive section, bounded by the lock
// timeout and the caller's context. The returned release function must
// be called exactly once.
func (m *Manager) Lock(ctx context.Context, owner string) (func(), error) {
	st := m.ownerStateFor(owner)

	ctx, cancel := context.WithTimeout(ctx, m.lockTimeout)
	defer cancel()

	if err := st.sem.Acquire(ctx, 1); err != nil {
		return nil, model.WrapInternal(err, "timed out waiting for owner %s lock", owner)
	}
	return func() { st.sem.Release(1) }, nil
}

// Active returns the owner's active scope ids, sorted for determinism.
func (m *Manager) Active(owner string) []string {
	m.mu.Lock()
	st, ok := m.owners[owner]
	if !ok {
		m.mu.Unlock()
		return []string{}
	}
	scopes := make([]string, 0, len(st.frames))
	for s := range st.frames {
		scopes = append(scopes, s)
	}
	m.mu.Unlock()

	sort.Strings(scopes)
	return scopes
}

// Primary returns the owner's primary scope id, if one is designated.
func (m *Manager) Primary(owner string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.owners[owner]
	if !ok || st.primary == "" {
		return "", false
	}
	return st.primary, true
}

// Frames returns copies of the owner's active frames, sorted by scope.
func (m *Manager) Frames(owner string) []model.Frame {
	m.mu.Lock()
	st, ok := m.owners[owner]
	if !ok {
		m.mu.Unlock()
		return []model.Frame{}
	}
	frames := make([]model.Frame, 0, len(st.frames))
	for _, f := range st.frames {
		frames = append(frames, f)
	}
	m.mu.Unlock()

	sort.Slice(frames, func(i, j int) bool { return frames[i].Scope < frames[j].Scope })
	return frames
}
