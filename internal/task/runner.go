package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordqueue/internal/platform/logger"
	"github.com/phrazzld/wordqueue/internal/redact"
)

// RecoveryFailureMessage is stored on jobs found in PROGRESS at startup.
const RecoveryFailureMessage = "interrupted by restart"

const defaultFailureMessage = "task failed without an error message"

// RunnerConfig holds configuration for the runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// ResultTTL is how long terminal jobs are kept. Zero keeps them forever.
	ResultTTL time.Duration

	// ResultSweepInterval defines how often expired jobs are removed.
	// If zero, defaults to 5 minutes
	ResultSweepInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:         DefaultWorkerPoolConfig().WorkerCount,
		ResultTTL:           24 * time.Hour,
		ResultSweepInterval: 5 * time.Minute,
	}
}

// Runner accepts job submissions, dispatches them to a worker pool and
// records every state transition in the state store.
type Runner struct {
	store    StateStore
	registry *Registry
	queue    *Queue
	pool     *WorkerPool
	config   RunnerConfig
	logger   *slog.Logger
	now      func() time.Time

	// jobCtx is the parent of every task body context. It carries values
	// from Start but is never cancelled.
	jobCtx context.Context

	mu          sync.Mutex
	started     bool
	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

// NewRunner creates a Runner. Executors must be registered in registry
// before jobs of their kind are submitted.
func NewRunner(store StateStore, registry *Registry, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.ResultSweepInterval <= 0 {
		config.ResultSweepInterval = 5 * time.Minute
	}

	r := &Runner{
		store:    store,
		registry: registry,
		queue:    NewQueue(logger.With("component", "job_queue")),
		config:   config,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		jobCtx:   context.Background(),
	}
	r.pool = NewWorkerPool(r.queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, r.process,
		logger.With("component", "worker_pool"))
	return r
}

// Submit records a PENDING job and enqueues it. It returns the job id as
// soon as the job is queued and never waits for execution.
func (r *Runner) Submit(ctx context.Context, kind Kind, payload any) (uuid.UUID, error) {
	if _, ok := r.registry.Lookup(kind); !ok {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if !started {
		return uuid.Nil, ErrRunnerNotStarted
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	job := NewJob(kind, raw, r.now())
	if err := r.store.Create(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save job: %w", err)
	}

	if err := r.queue.Enqueue(Item{JobID: job.ID, Kind: kind, Payload: raw}); err != nil {
		// The job can never run, so don't leave it PENDING forever.
		if setErr := r.store.SetState(ctx, job.ID, FailureUpdate(err.Error(), false)); setErr != nil {
			r.logger.Error("failed to mark unqueued job as failed",
				"job_id", job.ID,
				"error", redact.Error(setErr))
		}
		return uuid.Nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	logger.FromContextOrDefault(ctx, r.logger).Debug("job submitted",
		"job_id", job.ID,
		"job_kind", kind)
	return job.ID, nil
}

// Status returns the current state of a job from the state store.
func (r *Runner) Status(ctx context.Context, id uuid.UUID) (*Job, error) {
	return r.store.Get(ctx, id)
}

// Start recovers jobs left over from a previous run, starts the workers
// and, when a result TTL is configured, the expiry sweeper.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrRunnerStarted
	}
	r.started = true
	r.jobCtx = context.WithoutCancel(ctx)
	r.mu.Unlock()

	if err := r.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	r.pool.Start()

	if r.config.ResultTTL > 0 {
		sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		done := make(chan struct{})
		r.mu.Lock()
		r.sweepCancel = cancel
		r.sweepDone = done
		r.mu.Unlock()
		go r.resultSweeper(sweepCtx, done)
	}

	r.logger.Info("runner started",
		"worker_count", r.pool.WorkerCount(),
		"result_ttl", r.config.ResultTTL)
	return nil
}

// Stop closes the queue and waits for the workers to finish every queued
// job. If ctx is done first, idle workers are released and ctx.Err() is
// returned; jobs still executing are left to complete on their own.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.sweepCancel, r.sweepDone
	r.sweepCancel, r.sweepDone = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	r.queue.Close()

	if err := r.pool.Wait(ctx); err != nil {
		r.pool.Abort()
		r.logger.Warn("runner stopped before queue drained",
			"remaining", r.queue.Len(),
			"error", err)
		return err
	}

	r.logger.Info("runner stopped")
	return nil
}

// Recover re-queues jobs left PENDING by a previous process and fails jobs
// that were in PROGRESS, since their bodies may have partially run.
// With an in-memory state store there is nothing to recover.
func (r *Runner) Recover(ctx context.Context) error {
	pending, err := r.store.ListByState(ctx, StatePending)
	if err != nil {
		return fmt.Errorf("failed to get pending jobs: %w", err)
	}

	inProgress, err := r.store.ListByState(ctx, StateProgress)
	if err != nil {
		return fmt.Errorf("failed to get in-progress jobs: %w", err)
	}

	if len(pending) == 0 && len(inProgress) == 0 {
		return nil
	}

	r.logger.Info("recovering unfinished jobs",
		"pending_count", len(pending),
		"progress_count", len(inProgress))

	for _, job := range pending {
		if _, ok := r.registry.Lookup(job.Kind); !ok {
			msg := fmt.Sprintf("%v: %q", ErrUnknownKind, job.Kind)
			if err := r.store.SetState(ctx, job.ID, FailureUpdate(msg, false)); err != nil {
				r.logger.Error("failed to fail unknown pending job",
					"job_id", job.ID,
					"error", redact.Error(err))
			}
			continue
		}
		if err := r.queue.Enqueue(Item{JobID: job.ID, Kind: job.Kind, Payload: job.Payload}); err != nil {
			return fmt.Errorf("failed to requeue job %s: %w", job.ID, err)
		}
	}

	for _, job := range inProgress {
		reg, _ := r.registry.Lookup(job.Kind)
		update := FailureUpdate(RecoveryFailureMessage, reg.IgnoreResult)
		if err := r.store.SetState(ctx, job.ID, update); err != nil {
			r.logger.Error("failed to fail interrupted job",
				"job_id", job.ID,
				"job_kind", job.Kind,
				"error", redact.Error(err))
		}
	}

	return nil
}

// SweepExpired deletes terminal jobs that finished more than ResultTTL ago.
func (r *Runner) SweepExpired(ctx context.Context) (int, error) {
	if r.config.ResultTTL <= 0 {
		return 0, nil
	}
	cutoff := r.now().Add(-r.config.ResultTTL)
	return r.store.DeleteTerminalBefore(ctx, cutoff)
}

// process handles execution of a single job. Every outcome, including a
// panic, ends with the job in a terminal state.
func (r *Runner) process(workerID int, item Item) {
	log := r.logger.With(
		"job_id", item.JobID,
		"job_kind", item.Kind,
		"worker_id", workerID,
	)

	r.mu.Lock()
	ctx := logger.WithLogger(r.jobCtx, log)
	r.mu.Unlock()

	reg, ok := r.registry.Lookup(item.Kind)
	if !ok {
		log.Error("no executor registered for job")
		r.finish(ctx, log, item.JobID, FailureUpdate(fmt.Sprintf("%v: %q", ErrUnknownKind, item.Kind), false))
		return
	}

	log.Info("processing job")
	started := time.Now()

	reporter := &storeReporter{store: r.store, jobID: item.JobID}
	result, err := execute(ctx, reg.Executor, item.Payload, reporter)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = defaultFailureMessage
		}
		log.Error("job execution failed",
			"error", redact.Error(err),
			"duration", time.Since(started))
		r.finish(ctx, log, item.JobID, FailureUpdate(msg, reg.IgnoreResult))
		return
	}

	raw, err := marshalResult(result)
	if err != nil {
		log.Error("job result could not be encoded", "error", err)
		r.finish(ctx, log, item.JobID, FailureUpdate(err.Error(), reg.IgnoreResult))
		return
	}

	log.Info("job completed successfully", "duration", time.Since(started))
	r.finish(ctx, log, item.JobID, SuccessUpdate(raw, reg.IgnoreResult))
}

func (r *Runner) finish(ctx context.Context, log *slog.Logger, id uuid.UUID, update StateUpdate) {
	if err := r.store.SetState(ctx, id, update); err != nil {
		log.Error("failed to record final job state",
			"state", update.State,
			"error", redact.Error(err))
	}
}

// resultSweeper periodically removes terminal jobs older than ResultTTL.
func (r *Runner) resultSweeper(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.config.ResultSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			removed, err := r.SweepExpired(ctx)
			if err != nil {
				r.logger.Error("failed to sweep expired jobs", "error", redact.Error(err))
				continue
			}
			if removed > 0 {
				r.logger.Info("swept expired jobs", "count", removed)
			}
		}
	}
}

func execute(ctx context.Context, exec Executor, payload json.RawMessage, progress ProgressReporter) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, rec)
		}
	}()
	return exec.Execute(ctx, payload, progress)
}

func marshalResult(result any) (json.RawMessage, error) {
	if result == nil {
		return nil, nil
	}
	if raw, ok := result.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, errors.New("task returned invalid JSON result")
		}
		return raw, nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return raw, nil
}

// storeReporter writes progress straight to the state store.
type storeReporter struct {
	store StateStore
	jobID uuid.UUID
}

func (p *storeReporter) Report(ctx context.Context, current, total int) error {
	return p.store.SetState(ctx, p.jobID, ProgressUpdate(current, total))
}
