package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/wordqueue/internal/api/shared"
	"github.com/phrazzld/wordqueue/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTask(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/start-task", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeJSON[TaskAcceptedResponse](t, rec)
	id, err := uuid.Parse(resp.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "/task-status/"+id.String(), rec.Header().Get("Location"))

	subs := s.runner.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, task.KindSimulatedProgress, subs[0].Kind)
}

func TestStartTask_RunnerStopped(t *testing.T) {
	s := newTestServer(t, 1<<20)
	s.runner.submitErr = task.ErrQueueClosed

	rec := s.do(httptest.NewRequest(http.MethodPost, "/start-task", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, 1<<20)

	tests := []struct {
		name      string
		job       *task.Job
		wantCode  int
		wantReady bool
		wantValue string
		wantError string
	}{
		{
			name:      "pending",
			job:       &task.Job{State: task.StatePending},
			wantCode:  http.StatusOK,
			wantValue: "null",
		},
		{
			name:      "in progress",
			job:       &task.Job{State: task.StateProgress, Progress: &task.Progress{Current: 3, Total: 10}},
			wantCode:  http.StatusOK,
			wantValue: "null",
		},
		{
			name:      "success",
			job:       &task.Job{State: task.StateSuccess, Result: json.RawMessage(`{"token_count":3}`)},
			wantCode:  http.StatusOK,
			wantReady: true,
			wantValue: `{"token_count":3}`,
		},
		{
			name:      "success with ignored result",
			job:       &task.Job{State: task.StateSuccess, ResultIgnored: true},
			wantCode:  http.StatusOK,
			wantReady: true,
			wantValue: "null",
		},
		{
			name:      "failure",
			job:       &task.Job{State: task.StateFailure, Error: "boom"},
			wantCode:  http.StatusBadRequest,
			wantError: "boom",
		},
		{
			name:      "failure with ignored result",
			job:       &task.Job{State: task.StateFailure, ResultIgnored: true},
			wantCode:  http.StatusBadRequest,
			wantError: ignoredFailureMessage,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id := s.runner.put(tc.job)

			rec := s.do(httptest.NewRequest(http.MethodGet, "/status/"+id.String(), nil))

			require.Equal(t, tc.wantCode, rec.Code)
			if tc.wantError != "" {
				resp := decodeJSON[shared.ErrorResponse](t, rec)
				assert.Equal(t, tc.wantError, resp.Error)
				return
			}
			resp := decodeJSON[StatusResponse](t, rec)
			assert.Equal(t, tc.wantReady, resp.Ready)
			assert.JSONEq(t, tc.wantValue, string(resp.Value))
		})
	}
}

func TestStatus_NotFound(t *testing.T) {
	s := newTestServer(t, 1<<20)

	for _, path := range []string{"/status/" + uuid.NewString(), "/status/not-a-uuid"} {
		rec := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "Task not found", decodeJSON[shared.ErrorResponse](t, rec).Error)
	}
}

func TestStatus_StoreError(t *testing.T) {
	s := newTestServer(t, 1<<20)
	s.runner.statusErr = errors.New("connection refused to 10.0.0.1")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/status/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}

func TestTaskStatus(t *testing.T) {
	s := newTestServer(t, 1<<20)

	tests := []struct {
		name string
		job  *task.Job
		want string
	}{
		{
			name: "pending reports zero of one",
			job:  &task.Job{State: task.StatePending},
			want: `{"state":"PENDING","current":0,"total":1}`,
		},
		{
			name: "progress reports current and total",
			job:  &task.Job{State: task.StateProgress, Progress: &task.Progress{Current: 4, Total: 20}},
			want: `{"state":"PROGRESS","current":4,"total":20}`,
		},
		{
			name: "success reports result",
			job:  &task.Job{State: task.StateSuccess, Result: json.RawMessage(`"Task completed."`)},
			want: `{"state":"SUCCESS","result":"Task completed."}`,
		},
		{
			name: "success with ignored result reports null",
			job:  &task.Job{State: task.StateSuccess, ResultIgnored: true},
			want: `{"state":"SUCCESS","result":null}`,
		},
		{
			name: "failure reports error",
			job:  &task.Job{State: task.StateFailure, Error: "disk full"},
			want: `{"state":"FAILURE","error":"disk full"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id := s.runner.put(tc.job)

			rec := s.do(httptest.NewRequest(http.MethodGet, "/task-status/"+id.String(), nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
		})
	}
}

func TestUnknownStateIsNotSwallowed(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := s.runner.put(&task.Job{State: task.State("RETRY")})

	for _, path := range []string{"/status/", "/task-status/"} {
		rec := s.do(httptest.NewRequest(http.MethodGet, path+id.String(), nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
	}
}

func TestTaskStatus_NotFound(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/task-status/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewTaskHandler_NilLoggerPanics(t *testing.T) {
	assert.Panics(t, func() { NewTaskHandler(newFakeRunner(), nil) })
}
