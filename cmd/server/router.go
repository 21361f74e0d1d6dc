package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/queue-api/internal/api"
	apiMiddleware "github.com/phrazzld/queue-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	queueHandler := api.NewQueueHandler(app.priorityQueue, app.serialQueue, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/queue/stats", queueHandler.GetQueueStats)
		r.Get("/serial/stats", queueHandler.GetSerialQueueStats)
		r.Post("/tasks", queueHandler.SubmitTask)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
