// Package ledger provides SQLite-backed durable storage for the fact
// ledger: an append-only log of immutable observations about entities.
//
// The only mutation primitive is appending a new fact. Amending appends a
// fact that references the prior fact id; the prior row's superseded_by
// column is repointed to the amendment and nothing else in the row is ever
// touched. History stays fully readable for causal tracing.
//
// # Critical Patterns
//
// Logical Identity and Time
//   - Every fact carries seq INTEGER, assigned inside the append
//     transaction from MAX(seq)+1. All ordering uses seq, never wall time.
//
// Deterministic Query Results
//   - All queries order by: seq ASC, id COLLATE BINARY ASC
//
// Amendment Conflicts
//   - Amending an unknown fact id is not_found.
//   - Amending a fact that already has a newer amendment (by recorded_at,
//     ties by id) is conflict. Last-amendment-wins is resolved by
//     timestamp ordering, not arrival order.
//
// Integrity
//   - Every fact is stamped with SHA-256(domain + 0x00 + canonical JSON)
//     over its identifying content at append time.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Writes flow through Tx so the transaction coordinator can stage ledger
// writes alongside graph writes and commit or roll back both together.
package ledger
