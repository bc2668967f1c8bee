package task

import "errors"

// Errors returned by the task package.
var (
	// ErrJobNotFound is returned when a job id has never been submitted (or its
	// record has expired). It is never used to describe a failed job.
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when a job with the same id already exists.
	ErrDuplicateJob = errors.New("job already exists")

	// ErrJobTerminal is returned when an update targets a job that has already
	// reached SUCCESS or FAILURE.
	ErrJobTerminal = errors.New("job already in terminal state")

	// ErrInvalidTransition is returned for updates the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidProgress is returned for malformed or regressing progress snapshots.
	ErrInvalidProgress = errors.New("invalid progress")

	// ErrUnknownState is returned when a state value is not one of the four known states.
	ErrUnknownState = errors.New("unknown job state")

	// ErrUnknownKind is returned when no executor is registered for a job kind.
	ErrUnknownKind = errors.New("unknown job kind")

	// ErrQueueClosed is returned when enqueueing after the queue has been closed.
	ErrQueueClosed = errors.New("job queue is closed")

	// ErrRunnerStarted is returned by Runner.Start when the runner is already running.
	ErrRunnerStarted = errors.New("runner already started")

	// ErrInvalidPayload is returned by task bodies that cannot decode their payload.
	ErrInvalidPayload = errors.New("invalid job payload")
)

// ErrTaskPanicked wraps the value recovered from a panicking task body.
var ErrTaskPanicked = errors.New("task panicked")

// ErrRunnerNotStarted is returned by Submit before Start has been called.
var ErrRunnerNotStarted = errors.New("runner not started")
