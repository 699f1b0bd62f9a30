// Package graph stores typed entities and typed directed relations in
// its own SQLite database, separate from the fact ledger.
//
// Nothing is physically deleted. Forgetting an entity sets forgotten_at;
// unlinking a relation sets unlinked_at. Readers that serve live state
// filter those rows out, while the causal tracer and history queries can
// still reach them through the raw lookups.
//
// Writes run inside a Tx staged by the transaction coordinator, so a
// handler that touches both the graph and the ledger commits atomically
// or not at all. Reads outside a transaction go straight to the store.
//
// Every query carries a deterministic ORDER BY with an id COLLATE BINARY
// tiebreaker, so identical store contents always produce identical
// result sequences.
package graph
