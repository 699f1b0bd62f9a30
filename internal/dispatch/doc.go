// Package dispatch maps verb names to handlers and normalizes their
// outcomes into result envelopes.
//
// Dispatch is synchronous and single-operation: one call resolves one
// registered verb, validates its required payload fields, runs the
// handler inside the transaction coordinator, and returns an Envelope.
// Success envelopes carry the handler's result; failure envelopes carry
// the taxonomy kind and message verbatim, with anything outside the
// taxonomy surfaced as kind "internal". A dispatcher never panics the
// process over a bad operation and never returns a Go error to the
// transport; the envelope is the whole answer.
//
// Scope verbs (enter_scope, leave_scope, focus_scope, context) take the
// owner from the authenticated actor and serialize per owner through
// the coordinator. All other verbs run unscoped and concurrently.
package dispatch
