package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/wordqueue/internal/domain"
	"github.com/phrazzld/wordqueue/internal/store"
	"github.com/phrazzld/wordqueue/internal/task"
	"github.com/phrazzld/wordqueue/internal/upload"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type submission struct {
	Kind    task.Kind
	Payload any
}

// fakeRunner records submissions and serves jobs from a map.
type fakeRunner struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*task.Job
	submitted []submission
	submitErr error
	statusErr error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{jobs: make(map[uuid.UUID]*task.Job)}
}

func (f *fakeRunner) Submit(_ context.Context, kind task.Kind, payload any) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return uuid.Nil, f.submitErr
	}
	id := uuid.New()
	f.submitted = append(f.submitted, submission{Kind: kind, Payload: payload})
	f.jobs[id] = &task.Job{ID: id, Kind: kind, State: task.StatePending}
	return id, nil
}

func (f *fakeRunner) Status(_ context.Context, id uuid.UUID) (*task.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	job, ok := f.jobs[id]
	if !ok {
		return nil, task.ErrJobNotFound
	}
	return job.Clone(), nil
}

func (f *fakeRunner) put(job *task.Job) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	f.jobs[job.ID] = job
	return job.ID
}

func (f *fakeRunner) submissions() []submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]submission(nil), f.submitted...)
}

// fakeWordStore records the last listing request.
type fakeWordStore struct {
	page    store.WordPage
	listErr error
	params  *store.ListParams
}

func (f *fakeWordStore) CreateMany(context.Context, []*domain.Word) error { return nil }

func (f *fakeWordStore) List(_ context.Context, params store.ListParams) (store.WordPage, error) {
	f.params = &params
	if f.listErr != nil {
		return store.WordPage{}, f.listErr
	}
	return f.page, nil
}

func (f *fakeWordStore) Reset(context.Context) error { return nil }

type testServer struct {
	router  http.Handler
	runner  *fakeRunner
	words   *fakeWordStore
	fs      afero.Fs
	uploads *upload.Store
}

const testUploadDir = "/uploads"

func newTestServer(t *testing.T, maxBytes int64) *testServer {
	t.Helper()

	fs := afero.NewMemMapFs()
	uploads := upload.NewStore(fs, testUploadDir, []string{"txt"}, testLogger())
	runner := newFakeRunner()
	words := &fakeWordStore{}

	tasks := NewTaskHandler(runner, testLogger())
	uploadHandler := NewUploadHandler(uploads, runner, maxBytes, testLogger())
	wordHandler := NewWordHandler(words, testLogger())

	r := chi.NewRouter()
	r.Post("/upload", uploadHandler.Upload)
	r.Get("/status/{id}", tasks.Status)
	r.Get("/words", wordHandler.ListWords)
	r.Post("/start-task", tasks.StartTask)
	r.Get("/task-status/{id}", tasks.TaskStatus)

	return &testServer{router: r, runner: runner, words: words, fs: fs, uploads: uploads}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// multipartRequest builds a POST /upload request. A nil content sends a
// form without any file part.
func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if content != nil {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("other", "value"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
