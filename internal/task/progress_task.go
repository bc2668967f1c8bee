package task

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"
)

// ProgressCompletedMessage is the result of every simulated task.
const ProgressCompletedMessage = "Task completed."

// StepCounter returns the number of steps a simulated task will take.
type StepCounter func() int

// DelayFunc returns how long the next step should take.
type DelayFunc func() time.Duration

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ProgressTaskConfig bounds the simulated work.
type ProgressTaskConfig struct {
	MinSteps     int
	MaxSteps     int
	MaxStepDelay time.Duration
}

// DefaultProgressTaskConfig returns the default bounds: 10 to 50 steps of
// up to one second each.
func DefaultProgressTaskConfig() ProgressTaskConfig {
	return ProgressTaskConfig{
		MinSteps:     10,
		MaxSteps:     50,
		MaxStepDelay: time.Second,
	}
}

// ProgressTask simulates a long computation, reporting progress after
// every step.
type ProgressTask struct {
	steps StepCounter
	delay DelayFunc
	sleep SleepFunc
}

var _ Executor = (*ProgressTask)(nil)

// ProgressTaskOption customises a ProgressTask.
type ProgressTaskOption func(*ProgressTask)

// WithStepCounter overrides the random step count.
func WithStepCounter(steps StepCounter) ProgressTaskOption {
	return func(t *ProgressTask) { t.steps = steps }
}

// WithDelay overrides the random per-step delay.
func WithDelay(delay DelayFunc) ProgressTaskOption {
	return func(t *ProgressTask) { t.delay = delay }
}

// WithSleep overrides how the task waits between steps.
func WithSleep(sleep SleepFunc) ProgressTaskOption {
	return func(t *ProgressTask) { t.sleep = sleep }
}

// NewProgressTask creates a simulated task with steps drawn uniformly from
// [MinSteps, MaxSteps] and delays from [0, MaxStepDelay).
func NewProgressTask(config ProgressTaskConfig, opts ...ProgressTaskOption) *ProgressTask {
	minSteps := max(config.MinSteps, 1)
	maxSteps := max(config.MaxSteps, minSteps)

	t := &ProgressTask{
		steps: func() int {
			return minSteps + rand.IntN(maxSteps-minSteps+1)
		},
		delay: func() time.Duration {
			if config.MaxStepDelay <= 0 {
				return 0
			}
			return rand.N(config.MaxStepDelay)
		},
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Execute implements Executor. The payload is ignored.
func (t *ProgressTask) Execute(ctx context.Context, _ json.RawMessage, progress ProgressReporter) (any, error) {
	total := max(t.steps(), 1)

	for i := 0; i < total; i++ {
		if err := t.sleep(ctx, t.delay()); err != nil {
			return nil, err
		}
		if err := progress.Report(ctx, i, total); err != nil {
			return nil, err
		}
	}

	return ProgressCompletedMessage, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
