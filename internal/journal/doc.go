// Package journal is the SQLite-backed action log of a host store.
//
// Every committed dispatch is appended as one entry: the serialised action,
// the logical sequence number it was committed at, and a hash of the state
// it produced. Entries are never updated or deleted.
//
// Ordering uses seq (a logical clock), never wall time. All reads are
// ORDER BY seq ASC, id ASC COLLATE BINARY so that replays see identical
// results.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
package journal
