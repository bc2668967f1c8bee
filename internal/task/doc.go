// Package task manages asynchronous job submission, execution, and state tracking.
// Jobs are accepted by a Runner, placed on an in-memory FIFO Queue and executed by
// a WorkerPool. Task bodies report progress through a ProgressReporter and every
// state transition is written straight to a StateStore, which is what clients poll.
// It also contains the two task bodies the application runs: file ingestion and a
// simulated long-running task.
package task
