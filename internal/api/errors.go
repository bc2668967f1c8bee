package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/wordqueue/internal/api/shared"
	"github.com/phrazzld/wordqueue/internal/domain"
	"github.com/phrazzld/wordqueue/internal/store"
	"github.com/phrazzld/wordqueue/internal/task"
	"github.com/phrazzld/wordqueue/internal/upload"
)

// User-facing messages for upload validation failures.
const (
	msgNoFilePart     = "No file part."
	msgNoFileSelected = "No file selected."
	msgNoTextFile     = "No text file selected."
	msgFileTooLarge   = "File too large."
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	// Not found errors
	case errors.Is(err, task.ErrJobNotFound),
		store.IsNotFoundError(err):
		return http.StatusNotFound

	// Bad request errors
	case store.IsValidationError(err),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, upload.ErrNoFilename),
		errors.Is(err, upload.ErrExtensionNotAllowed),
		errors.Is(err, upload.ErrInvalidFilename):
		return http.StatusBadRequest

	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge

	// The runner is shutting down
	case errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, task.ErrRunnerNotStarted):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, task.ErrJobNotFound):
		return "Task not found"

	case errors.Is(err, upload.ErrNoFilename):
		return msgNoFileSelected

	case errors.Is(err, upload.ErrExtensionNotAllowed),
		errors.Is(err, upload.ErrInvalidFilename):
		return msgNoTextFile

	case errors.As(err, &maxBytesErr):
		return msgFileTooLarge

	case errors.Is(err, store.ErrInvalidSortField):
		return "Invalid sort field"

	case errors.Is(err, store.ErrInvalidSortOrder):
		return "Invalid sort order"

	case errors.Is(err, store.ErrInvalidPage):
		return "Invalid range"

	case store.IsValidationError(err),
		errors.Is(err, domain.ErrValidation):
		return "Invalid request"

	case errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, task.ErrRunnerNotStarted):
		return "Service is shutting down"

	default:
		return "An unexpected error occurred"
	}
}

// respondWithMappedError writes the status and safe message for err and
// logs the details.
func respondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
