// Package scheduler orchestrates the job store and the trigger engine: it
// rehydrates pending jobs at startup, polls the store for changes made by
// other processes, fires each job exactly once via the trigger engine, and
// writes every status transition back to the store.
//
// Concurrency model. There are two domains: the monitoring loop (one
// goroutine, runs reconciliation ticks) and the per-fire execution
// callbacks (timer goroutines, may overlap with each other and with the
// loop). The job document is the only shared mutable resource; every
// load-mutate-save sequence holds storeMu for its whole duration so
// concurrent callbacks cannot clobber each other's writes. The trigger
// engine keeps its own internal lock; when both locks are needed storeMu
// is acquired first, and timer callbacks release the engine lock before
// touching the store, so the order cannot invert.
//
// Known race: a cancel arriving after a timer has fired but before the
// execution callback persists its outcome resolves by last-write-wins on
// the store, not by logical priority. Either the cancel or the outcome
// lands second and sticks. This is documented behavior, not a guarantee.
//
// Shutdown: the monitoring loop stops first, in-flight callbacks get a
// bounded wait, then the engine's remaining timers are stopped. If the
// wait bound is exceeded the callbacks are abandoned (logged, accepted
// limitation) rather than interrupted.
package scheduler
