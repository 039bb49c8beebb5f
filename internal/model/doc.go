// Package model provides the in-memory representation of a flowrun batch:
// the job records loaded from the user's HCL job-table files, the runtime
// state the scheduler keeps per job while a flow executes, and the result
// rows the run emits.
//
// # Core Concepts
//
//   - JobRecord: one row of the input job table. Immutable after loading.
//     Identity is positional: a record is "job i of flow f", nothing more.
//
//   - JobRuntimeState: the scheduler's mutable companion to a JobRecord.
//     It exists only while the record's flow is executing and tracks the
//     Pending -> Dispatched -> Completed progression plus the remote handle.
//
//   - FlowState: the bookkeeping for one flow in flight: the ordered runtime
//     states, how many jobs are currently outstanding on the remote service,
//     and how many have finished.
//
//   - JobResult: the durable output row, produced exactly once per JobRecord
//     at the moment its runtime state reaches Completed. Results outlive
//     their flow and accumulate into the run's output table.
//
// Why a separate model package?
//
// The loader, partitioner, scheduler and result writers all exchange these
// types. Keeping them free of HCL, HTTP and scheduling concerns lets the
// scheduler be tested against hand-built records and lets the writers stay
// ignorant of where a result came from.
package model
