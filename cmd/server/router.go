package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beargallbladder/golfswarm/internal/api"
	apimiddleware "github.com/beargallbladder/golfswarm/internal/api/middleware"
)

// setupRouter builds the HTTP routing table from the application's
// dependencies.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	uploadHandler := api.NewUploadHandler(
		app.coordinator,
		app.shotStore,
		app.config.Server.Development,
		app.logger,
	)
	shotHandler := api.NewShotHandler(app.shotStore)
	roadmapHandler := api.NewRoadmapHandler(app.scheduler)
	statusHandler := api.NewStatusHandler(app.monitor)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.verifier)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/uploads", uploadHandler.ProcessUpload)
			r.Post("/uploads/batch", uploadHandler.ProcessBatch)
			r.Get("/shots/{shotID}", shotHandler.GetShot)
			r.Post("/roadmap", roadmapHandler.ExecuteRoadmap)
		})

		r.Get("/agents/status", statusHandler.GetAgentStatus)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
