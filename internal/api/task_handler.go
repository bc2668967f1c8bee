package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/wordqueue/internal/api/shared"
	"github.com/phrazzld/wordqueue/internal/platform/logger"
	"github.com/phrazzld/wordqueue/internal/task"
)

// ignoredFailureMessage is reported for failed jobs whose kind does not
// retain error details.
const ignoredFailureMessage = "Task failed."

// JobRunner submits jobs and reports their state.
type JobRunner interface {
	Submit(ctx context.Context, kind task.Kind, payload any) (uuid.UUID, error)
	Status(ctx context.Context, id uuid.UUID) (*task.Job, error)
}

// TaskHandler serves job submission and job status requests.
type TaskHandler struct {
	runner JobRunner
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(runner JobRunner, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		runner: runner,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// StartTask handles POST /start-task requests.
// It submits a simulated long-running job and returns its id.
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := h.runner.Submit(r.Context(), task.KindSimulatedProgress, nil)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	log.Debug("submitted simulated task", slog.String("job_id", id.String()))
	w.Header().Set("Location", "/task-status/"+id.String())
	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskAcceptedResponse{TaskID: id.String()})
}

// Status handles GET /status/{id} requests.
// A failed job yields 400 with its error; any other job yields whether it
// is finished and, if so, its result.
func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}

	switch job.State {
	case task.StateFailure:
		shared.RespondWithError(w, r, http.StatusBadRequest, failureMessage(job))
	case task.StateSuccess:
		shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Ready: true, Value: resultOrNull(job)})
	case task.StatePending, task.StateProgress:
		shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Ready: false, Value: json.RawMessage("null")})
	default:
		respondUnknownState(w, r, job)
	}
}

// TaskStatus handles GET /task-status/{id} requests.
// The response is keyed by the raw state name.
func (h *TaskHandler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}

	resp := TaskStatusResponse{State: job.State.String()}
	switch job.State {
	case task.StatePending:
		resp.Current, resp.Total = intPtr(0), intPtr(1)
	case task.StateProgress:
		progress := task.Progress{Current: 0, Total: 1}
		if job.Progress != nil {
			progress = *job.Progress
		}
		resp.Current, resp.Total = intPtr(progress.Current), intPtr(progress.Total)
	case task.StateSuccess:
		result := resultOrNull(job)
		resp.Result = &result
	case task.StateFailure:
		msg := failureMessage(job)
		resp.Error = &msg
	default:
		respondUnknownState(w, r, job)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// lookup resolves the {id} path parameter to a job. Malformed ids are
// reported as unknown jobs.
func (h *TaskHandler) lookup(w http.ResponseWriter, r *http.Request) (*task.Job, bool) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusNotFound, GetSafeErrorMessage(task.ErrJobNotFound), err)
		return nil, false
	}

	job, err := h.runner.Status(r.Context(), id)
	if err != nil {
		respondWithMappedError(w, r, err)
		return nil, false
	}

	return job, true
}

func respondUnknownState(w http.ResponseWriter, r *http.Request, job *task.Job) {
	shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
		"An unexpected error occurred", fmt.Errorf("%w: %q", task.ErrUnknownState, job.State))
}

func failureMessage(job *task.Job) string {
	if job.ResultIgnored || job.Error == "" {
		return ignoredFailureMessage
	}
	return job.Error
}

func resultOrNull(job *task.Job) json.RawMessage {
	if len(job.Result) == 0 {
		return json.RawMessage("null")
	}
	return job.Result
}

func intPtr(n int) *int {
	return &n
}
