// Package worker supervises the external conversion workers (one long-lived
// process per Kind) and correlates requests with their replies.
//
//   - supervisor.go: Supervisor lifecycle (start, fixed-delay restart, stop),
//     stdout line dispatch, correlated Call.
//   - pending.go: PendingTable, the id -> caller map with per-entry deadlines.
//   - process.go / process_exec.go: the Process boundary and its os/exec
//     implementation. workertest provides an in-memory fake.
//   - errors.go: WorkerUnavailable, WorkerTimeout, WorkerProtocolError and
//     WorkerCrash, each with an HTTP status code.
//
// A Supervisor restarts its worker a fixed delay after every exit, forever,
// until Stop. There is no backoff growth and no circuit breaker.
package worker
