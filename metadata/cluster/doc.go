// Package cluster tracks which nodes of the cluster are alive,
// fenced, or gone. The registry is an event-sourced state machine:
// its state is exactly the result of replaying the membership records
// committed to the metadata log, applied one at a time in log order.
// Replay is deterministic and never consults the clock; wall-clock
// liveness lives in the heartbeat package and feeds back into the log
// as ordinary fence and unfence records.
//
// Epochs guard against stale writers. Every record carries the epoch
// it applies to, and a record bearing an epoch that does not match
// the registered one resolves to a no-op during replay: the log is
// the source of truth and has already committed the record, so the
// registry cannot refuse it, but it can recognize that it refers to
// an incarnation that no longer exists.
//
// The snapshot iterator exports the full registry state as of a past
// offset as a stream of register-equivalent record batches, which is
// how new followers bootstrap without replaying the entire historical
// log.
package cluster
