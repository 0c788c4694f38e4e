// Package memory implements the two memory tiers read by both agents and
// mutated only by the control loop:
//
//   - ShortTermStore: a per-session FIFO window of completed turns, bounded
//     by a retention window (oldest evicted first).
//   - LongTermStore: a process-wide semantic store of write-once records
//     retrieved by embedding similarity. The chromem-go implementation
//     supports concurrent reads and per-record append-only writes without a
//     global lock held across a turn.
//
// Embedding is pluggable via the Embedder interface; an OpenAI-backed
// implementation and a deterministic local one (for tests and offline use)
// are provided.
package memory
