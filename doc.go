// Package queuectl is the root of a durable, single-node background
// job queue engine.
//
// # Overview
//
// queuectl models a durable job queue with explicit state transitions,
// at-most-once concurrent execution per job, priority-aware scheduling,
// delayed (future-time) execution, exponential-backoff retries and a
// dead-letter queue for terminal failures.
//
// The engine is split into independently usable packages:
//
//	job      — the Job type, its state machine and retry arithmetic
//	metrics  — the append-only event log and derived summary statistics
//	store    — the durable SQLite-backed store and its atomic claim query
//	queue    — the Queue Manager façade clients and workers call
//	executor — the pluggable command-execution strategy
//	worker   — the single-worker loop, the N-worker pool and the janitor
//	config   — the configuration record consumed at process bootstrap
//
// # Delivery Semantics
//
// queuectl provides at-most-once *concurrent* execution per job: the
// atomic claim query guarantees no two workers observe the same pending
// row, so a job is never run by two workers simultaneously. Across a
// crash, at-least-once is accepted — a worker that dies mid-execution
// leaves its job in processing until the janitor (or an operator)
// reclaims it; see worker.Janitor.
//
// # State Machine
//
// Jobs follow this lifecycle:
//
//	pending    -> processing               (claim)
//	processing -> pending                  (mark pending, retries remain)
//	processing -> dead                     (mark dead, retries exhausted)
//	processing -> completed                (mark completed)
//	dead       -> pending                  (retry from DLQ)
//
// completed and dead are terminal; only an explicit DLQ retry re-enters
// the cycle.
//
// # Retry Policy
//
// When execution fails, the worker increments attempts and compares it
// against max_retries: attempts <= max_retries schedules a retry after
// an exponential backoff (job.CalculateBackoff); otherwise the job is
// moved to the dead-letter queue.
//
// # Concurrency Model
//
// Parallelism comes from running multiple independent Worker loops
// (worker.Pool), not from concurrency inside a single worker: a worker
// is strictly sequential — claim, execute, commit outcome, repeat.
//
// # Storage
//
// The only implementation shipped is store.Store, backed by
// github.com/uptrace/bun over modernc.org/sqlite. The Queue Manager
// depends on the package-level store.Backend interface, so alternative
// backends can be substituted without touching queue logic.
package queuectl
