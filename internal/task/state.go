package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a job.
type State string

// Job states. A job starts PENDING, may report PROGRESS any number of
// times and ends in exactly one of SUCCESS or FAILURE.
const (
	StatePending  State = "PENDING"
	StateProgress State = "PROGRESS"
	StateSuccess  State = "SUCCESS"
	StateFailure  State = "FAILURE"
)

// ParseState converts a stored state name into a State.
func ParseState(s string) (State, error) {
	st := State(s)
	if err := st.Validate(); err != nil {
		return "", err
	}
	return st, nil
}

// Validate returns ErrUnknownState for anything other than the four states.
func (s State) Validate() error {
	switch s {
	case StatePending, StateProgress, StateSuccess, StateFailure:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownState, string(s))
}

// IsTerminal reports whether no further transitions can happen from s.
// Unknown states are reported as terminal so that nothing writes over them.
func (s State) IsTerminal() bool {
	switch s {
	case StatePending, StateProgress:
		return false
	case StateSuccess, StateFailure:
		return true
	}
	return true
}

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// Kind identifies which task body executes a job.
type Kind string

// Known job kinds.
const (
	KindIngestFile        Kind = "ingest_file"
	KindSimulatedProgress Kind = "simulated_progress"
)

// Progress is the latest progress snapshot of an in-flight job.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Validate checks 0 <= Current < Total. A job that has done all of its
// steps reports SUCCESS, not a full progress bar.
func (p Progress) Validate() error {
	if p.Current < 0 {
		return fmt.Errorf("%w: current %d is negative", ErrInvalidProgress, p.Current)
	}
	if p.Total < 1 {
		return fmt.Errorf("%w: total %d must be at least 1", ErrInvalidProgress, p.Total)
	}
	if p.Current >= p.Total {
		return fmt.Errorf("%w: current %d must be below total %d", ErrInvalidProgress, p.Current, p.Total)
	}
	return nil
}

// Job is one submitted unit of asynchronous work and its tracked state.
type Job struct {
	ID      uuid.UUID       `json:"id"`
	Kind    Kind            `json:"kind"`
	State   State           `json:"state"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Progress is set only while State is PROGRESS.
	Progress *Progress `json:"progress,omitempty"`

	// Result is set only when State is SUCCESS and the result was retained.
	Result json.RawMessage `json:"result,omitempty"`

	// Error is set only when State is FAILURE and the error was retained.
	Error string `json:"error,omitempty"`

	// ResultIgnored marks a terminal job whose kind does not retain its
	// outcome payload. The job did run; only the payload was dropped.
	ResultIgnored bool `json:"result_ignored,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJob creates a PENDING job with a fresh id.
func NewJob(kind Kind, payload json.RawMessage, now time.Time) *Job {
	return &Job{
		ID:        uuid.New(),
		Kind:      kind,
		State:     StatePending,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	c := *j
	if j.Progress != nil {
		p := *j.Progress
		c.Progress = &p
	}
	if j.Payload != nil {
		c.Payload = append(json.RawMessage(nil), j.Payload...)
	}
	if j.Result != nil {
		c.Result = append(json.RawMessage(nil), j.Result...)
	}
	return &c
}

// StateUpdate describes one transition requested for a job.
type StateUpdate struct {
	State    State
	Progress *Progress
	Result   json.RawMessage
	Error    string

	// IgnoreResult drops Result/Error when entering a terminal state.
	IgnoreResult bool
}

// ProgressUpdate builds a PROGRESS update.
func ProgressUpdate(current, total int) StateUpdate {
	return StateUpdate{State: StateProgress, Progress: &Progress{Current: current, Total: total}}
}

// SuccessUpdate builds a SUCCESS update.
func SuccessUpdate(result json.RawMessage, ignoreResult bool) StateUpdate {
	return StateUpdate{State: StateSuccess, Result: result, IgnoreResult: ignoreResult}
}

// FailureUpdate builds a FAILURE update.
func FailureUpdate(message string, ignoreResult bool) StateUpdate {
	return StateUpdate{State: StateFailure, Error: message, IgnoreResult: ignoreResult}
}

// Apply validates u against the job's current state and applies it.
// The job is left untouched when an error is returned.
func (j *Job) Apply(u StateUpdate, now time.Time) error {
	if err := j.State.Validate(); err != nil {
		return err
	}
	if j.State.IsTerminal() {
		return fmt.Errorf("%w: job %s is %s", ErrJobTerminal, j.ID, j.State)
	}

	switch u.State {
	case StatePending:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, u.State)

	case StateProgress:
		if u.Progress == nil {
			return fmt.Errorf("%w: progress update without snapshot", ErrInvalidProgress)
		}
		if err := u.Progress.Validate(); err != nil {
			return err
		}
		if j.Progress != nil && u.Progress.Current < j.Progress.Current {
			return fmt.Errorf("%w: current went from %d to %d",
				ErrInvalidProgress, j.Progress.Current, u.Progress.Current)
		}
		p := *u.Progress
		j.State = StateProgress
		j.Progress = &p

	case StateSuccess:
		j.State = StateSuccess
		j.Progress = nil
		j.Error = ""
		j.ResultIgnored = u.IgnoreResult
		j.Result = nil
		if !u.IgnoreResult && u.Result != nil {
			j.Result = append(json.RawMessage(nil), u.Result...)
		}

	case StateFailure:
		if u.Error == "" {
			return fmt.Errorf("%w: failure without error description", ErrInvalidTransition)
		}
		j.State = StateFailure
		j.Progress = nil
		j.Result = nil
		j.ResultIgnored = u.IgnoreResult
		j.Error = ""
		if !u.IgnoreResult {
			j.Error = u.Error
		}

	default:
		return u.State.Validate()
	}

	j.UpdatedAt = now
	return nil
}
