// Package txn coordinates one dispatched operation across the graph
// store, the fact ledger, and the owner's scope state.
//
// The two stores are physically separate SQLite databases with no shared
// transaction primitive, so atomicity comes from a staged-commit
// protocol. Every write a handler issues lands inside an open SQL
// transaction on its store; a write that fails to stage fails the whole
// operation before anything commits. Commit order is fixed: the ledger
// commits first, only once every graph statement has staged cleanly,
// then the graph, then the in-memory scope stage swaps in. A ledger
// commit failure rolls the graph back and nothing is observable. The
// residual window is a graph commit failure after the ledger committed;
// that is surfaced as an internal error and logged loudly, the
// documented cost of two physical stores.
//
// Handles release on every exit path through defers; rolling back an
// already-committed SQL transaction is a no-op, so the defers double as
// the error path.
package txn
