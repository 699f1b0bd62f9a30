// Package model defines the domain records shared by every graft layer:
// entities and relations (the graph), facts (the ledger), context frames
// (scope state), and causal events (trace output).
//
// It also owns the two cross-cutting mechanics the stores depend on:
//
//   - The error taxonomy. Every operation failure is an *Error with a Kind
//     drawn from a closed set (not_found, not_active, conflict,
//     invalid_argument, unknown_operation, internal). Callers match with
//     errors.As via the Is* predicates; the dispatcher maps kinds straight
//     into result envelopes.
//
//   - Deterministic serialization and hashing. MarshalCanonical produces
//     byte-stable JSON (sorted keys, NFC-normalized strings, no HTML
//     escaping) and integrity hashes are SHA-256 with domain separation:
//     SHA256(domain + 0x00 + data).
//
// Records here are plain values. Mutation rules live with their owning
// stores: facts are append-only, entities and relations are soft-deleted,
// frames only change under their owner's lock.
package model
