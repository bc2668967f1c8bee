package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StateStore persists the state of every submitted job. It is the only
// source of truth for status queries; nothing reads job state from workers.
type StateStore interface {
	// Create stores a new job. Returns ErrDuplicateJob if the id exists.
	Create(ctx context.Context, job *Job) error

	// Get returns a copy of the job. Returns ErrJobNotFound for unknown ids.
	Get(ctx context.Context, id uuid.UUID) (*Job, error)

	// SetState applies a transition to a job, validated by Job.Apply.
	// The write is visible to Get as soon as SetState returns.
	SetState(ctx context.Context, id uuid.UUID, update StateUpdate) error

	// ListByState returns all jobs currently in the given state,
	// oldest first.
	ListByState(ctx context.Context, state State) ([]*Job, error)

	// DeleteTerminalBefore removes SUCCESS and FAILURE jobs last updated
	// before cutoff and returns how many were removed.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
}
