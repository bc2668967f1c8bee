package api

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/phrazzld/wordqueue/internal/api/shared"
	"github.com/phrazzld/wordqueue/internal/platform/logger"
	"github.com/phrazzld/wordqueue/internal/task"
	"github.com/phrazzld/wordqueue/internal/upload"
)

// uploadFormField is the multipart field carrying the file.
const uploadFormField = "file"

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 1 << 20

// UploadHandler accepts text file uploads and queues them for ingestion.
type UploadHandler struct {
	uploads  *upload.Store
	runner   JobRunner
	maxBytes int64
	logger   *slog.Logger
}

// NewUploadHandler creates a new UploadHandler. Request bodies larger than
// maxBytes are rejected.
func NewUploadHandler(uploads *upload.Store, runner JobRunner, maxBytes int64, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for UploadHandler")
	}

	return &UploadHandler{
		uploads:  uploads,
		runner:   runner,
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "upload_handler")),
	}
}

// Upload handles POST /upload requests.
// The file is validated and stored before an ingestion job is submitted;
// nothing is queued for a rejected upload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondWithMappedError(w, r, err)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgNoFilePart, err)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn("failed to remove multipart temporary files", "error", err)
		}
	}()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		h.respondMissingFile(w, r, err)
		return
	}
	defer func() { _ = file.Close() }()

	saved, err := h.uploads.Save(header.Filename, file)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	id, err := h.runner.Submit(r.Context(), task.KindIngestFile, task.IngestPayload{
		Filename: saved.Filename,
		Filepath: saved.Path,
	})
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	log.Info("queued file for ingestion",
		slog.String("job_id", id.String()),
		slog.String("filename", saved.Filename),
		slog.Int64("size", saved.Size))

	w.Header().Set("Location", "/status/"+id.String())
	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskAcceptedResponse{TaskID: id.String()})
}

// respondMissingFile distinguishes a request without a file part from one
// whose file part has an empty filename. The multipart reader stores the
// latter as a plain form value.
func (h *UploadHandler) respondMissingFile(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, http.ErrMissingFile) && hasEmptyFilePart(r.MultipartForm) {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgNoFileSelected, upload.ErrNoFilename)
		return
	}
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgNoFilePart, err)
}

func hasEmptyFilePart(form *multipart.Form) bool {
	if form == nil {
		return false
	}
	_, ok := form.Value[uploadFormField]
	return ok
}
