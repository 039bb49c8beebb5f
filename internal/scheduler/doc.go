// Package scheduler runs one flow of jobs to completion against the remote
// job-execution service while keeping the number of outstanding jobs at or
// below a fixed ceiling.
//
// # The wave loop
//
// A flow executes as a sequence of waves, each a pass through three phases:
//
//  1. Admitting: scan the flow's jobs in priority (input) order and dispatch
//     every still-pending job until either the scan reaches the end of the
//     list or the concurrency ceiling is hit. The scan always covers the
//     whole list before the scheduler blocks, so open capacity is never left
//     idle while pending jobs exist.
//
//  2. Polling: block on the service's wait-for-any call with the set of all
//     outstanding handles. The call returns once at least one of them has
//     reached a terminal state.
//
//  3. Draining: mark each returned handle's job completed, emit its result
//     row, and release its capacity. If jobs remain unfinished the loop
//     returns to Admitting, otherwise the flow is done.
//
// A single goroutine drives the loop. "Concurrency" counts outstanding
// remote handles, not local threads, so the flow state needs no locking;
// the optional progress callback receives value snapshots only.
//
// Dispatch failures are fatal to the whole run: the scheduler does not retry
// and the flow's partial results are discarded. A remote job that never
// reaches a terminal state stalls the flow; bounding that wait is the
// service client's concern (see jobservice.Config.WaitTimeout).
package scheduler
