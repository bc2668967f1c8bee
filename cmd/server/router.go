package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/wordqueue/internal/api"
	apiMiddleware "github.com/phrazzld/wordqueue/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger)

	taskHandler := api.NewTaskHandler(app.taskRunner, app.logger)
	uploadHandler := api.NewUploadHandler(app.uploads, app.taskRunner, app.config.Upload.MaxBytes, app.logger)
	wordHandler := api.NewWordHandler(app.wordStore, app.logger)

	r.Post("/upload", uploadHandler.Upload)
	r.Get("/status/{id}", taskHandler.Status)
	r.Get("/words", wordHandler.ListWords)
	r.Post("/start-task", taskHandler.StartTask)
	r.Get("/task-status/{id}", taskHandler.TaskStatus)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
