// Package trace reconstructs causal chains from the fact ledger and the
// relation graph.
//
// A trace starts from a target id, which may name an entity, a fact, or
// a relation. From an entity it collects the facts recorded about it
// (following amends chains to their ancestors) and the relations
// pointing into it, recursing into each relation's source entity. The
// relation graph is not guaranteed acyclic, so a visited set of
// (kind, id) pairs truncates revisited branches and a configurable depth
// bound caps the recursion outright.
//
// Tracing is a pure function of current store state: no writes, and the
// same stores always yield the same event sequence. Events come back
// oldest-first, ties broken by id.
package trace
