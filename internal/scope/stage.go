package scope

import (
	"sort"

	"github.com/softgrove/graft/internal/model"
)

// Stage is one owner's staged mutation: a copy of the committed frame
// table that handlers mutate freely. Commit swaps the copy in; Abort
// (or simply dropping the stage) leaves the committed state untouched.
//
// A Stage is only valid while its owner's lock is held, so exactly one
// stage per owner exists at a time and Commit cannot race.
type Stage struct {
	manager *Manager
	owner   string

	frames  map[string]model.Frame
	primary string

	committed bool
}

// Begin opens a stage over the owner's current frames. The caller must
// hold the owner's lock (see Manager.Lock).
func (m *Manager) Begin(owner string) *Stage {
	st := m.ownerStateFor(owner)

	m.mu.Lock()
	frames := make(map[string]model.Frame, len(st.frames))
	for k, v := range st.frames {
		frames[k] = v
	}
	primary := st.primary
	m.mu.Unlock()

	return &Stage{
		manager: m,
		owner:   owner,
		frames:  frames,
		primary: primary,
	}
}

// Owner returns the owner this stage belongs to.
func (s *Stage) Owner() string {
	return s.owner
}

// EnterScope activates a scope for the owner. Idempotent: re-entering an
// active scope returns the existing frame unchanged. The first frame an
// owner holds becomes primary; later entries never steal primary.
func (s *Stage) EnterScope(scopeID string) (model.Frame, error) {
	if scopeID == "" {
		return model.Frame{}, model.NewInvalidArgument("enter_scope: scope is required")
	}

	if f, ok := s.frames[scopeID]; ok {
		return f, nil
	}

	if len(s.frames) >= s.manager.maxFrames {
		return model.Frame{}, model.NewConflict(
			"owner %s already holds %d active scopes (cap %d)",
			s.owner, len(s.frames), s.manager.maxFrames)
	}

	f := model.Frame{
		Owner:     s.owner,
		Scope:     scopeID,
		EnteredAt: s.manager.clock.Now(),
	}
	if len(s.frames) == 0 {
		f.Primary = true
		s.primary = scopeID
	}
	s.frames[scopeID] = f
	return f, nil
}

// LeaveScope deactivates a scope. Leaving the primary scope clears the
// primary designation; no other scope is promoted.
func (s *Stage) LeaveScope(scopeID string) (model.Frame, error) {
	f, ok := s.frames[scopeID]
	if !ok {
		return model.Frame{}, model.NewNotActive("owner %s has not entered scope %s", s.owner, scopeID)
	}

	delete(s.frames, scopeID)
	if s.primary == scopeID {
		s.primary = ""
	}
	return f, nil
}

// FocusScope designates an already-active scope as primary, displacing
// any previous primary.
func (s *Stage) FocusScope(scopeID string) (model.Frame, error) {
	f, ok := s.frames[scopeID]
	if !ok {
		return model.Frame{}, model.NewNotActive("owner %s has not entered scope %s", s.owner, scopeID)
	}

	if s.primary != "" && s.primary != scopeID {
		prev := s.frames[s.primary]
		prev.Primary = false
		s.frames[s.primary] = prev
	}
	f.Primary = true
	s.frames[scopeID] = f
	s.primary = scopeID
	return f, nil
}

// Active returns the scope ids staged as active, sorted.
func (s *Stage) Active() []string {
	scopes := make([]string, 0, len(s.frames))
	for id := range s.frames {
		scopes = append(scopes, id)
	}
	sort.Strings(scopes)
	return scopes
}

// Primary returns the staged primary scope, if any.
func (s *Stage) Primary() (string, bool) {
	if s.primary == "" {
		return "", false
	}
	return s.primary, true
}

// Commit swaps the staged frames into the committed state. A stage
// commits at most once; later calls are no-ops.
func (s *Stage) Commit() {
	if s.committed {
		return
	}
	s.committed = true

	st := s.manager.ownerStateFor(s.owner)
	s.manager.mu.Lock()
	st.frames = s.frames
	st.primary = s.primary
	s.manager.mu.Unlock()
}

// Abort discards the stage. Provided for symmetry; dropping the stage
// has the same effect.
func (s *Stage) Abort() {}
