// Package scope tracks, per owner, which scopes are active and which
// single one is primary.
//
// State lives in process memory only; durability across restarts is an
// explicitly deferred capability. What the package does guarantee is
// transactional visibility: mutations go through a Stage holding a copy
// of the owner's frames, and only Commit swaps the copy in. An aborted
// operation leaves the owner's state untouched.
//
// Races on the same owner are excluded by a per-owner lock (a weighted
// semaphore of weight one) acquired for the duration of the operation.
// Acquisition respects the caller's context and a configurable timeout,
// so a stuck holder surfaces as a fail-fast error instead of a hang.
//
// Invariants enforced here:
//   - at most one frame per (owner, scope) pair
//   - at most one primary frame per owner
//   - leaving the primary scope clears primary, with no auto-promotion
//   - the first scope an owner enters becomes primary
package scope
