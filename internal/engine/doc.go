// Package engine serialises dataset mutations.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Callers on any goroutine submit intents; Engine.Run applies them one at a
// time to the canonical store. This ensures:
// - Invariants hold without locking
// - Intents apply in submission order
// - Every change gets a unique, increasing revision
//
// Event Processing Flow:
//  1. Run hydrates the store before taking any intent
//  2. Intents are dequeued in FIFO order
//  3. state.Store.Apply performs the intent
//  4. A changed snapshot is stamped with Clock.Next() and offered to the writer
//  5. The submitter receives the snapshot and the changed flag
//
// Intents submitted while hydration runs wait in the queue.
//
// CRITICAL PATTERNS:
//
// Logical Clock
// Revisions come from the monotonic Clock, never from wall time.
package engine
