// Package engine hosts a reducer and owns its state.
//
// An Engine[S] is the store a reducer runs in. It holds the current state,
// serialises dispatches, stamps each committed action with a logical
// sequence number, and optionally appends it to a journal so a session can
// be replayed later.
//
// ARCHITECTURE:
//
// Dispatch:
// 1. The action is reduced against the current state under the engine lock
// 2. A reducer panic is recovered into a RuntimeError; state is unchanged
// 3. With a journal, the entry (action record + state hash) is appended
// 4. The new state is committed and the clock advances
// 5. Subscribers are notified after the lock is released
//
// Queue:
// Enqueue and Run provide a single-writer FIFO loop for producers that
// should not wait for the reduction. Errors inside the loop are logged and
// processing continues.
//
// Replay:
// Replay rebuilds an engine from a journaled session, reducing every entry
// again and comparing state hashes. A differing hash means the reducer is
// not deterministic over that history.
//
// Ordering uses the logical clock only. Wall time is never recorded.
package engine
