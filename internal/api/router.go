// internal/api/router.go
package api

import (
	"net/http"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the workflow API, probes and the metrics endpoint.
func NewRouter(wf Workflow, log logger.Logger, maxBodyBytes int64) http.Handler {
	h := NewHandler(wf, log, maxBodyBytes)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.logger))
	r.Use(instrument)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/pre-qualification/process", h.PreQualify)

		for stage, fn := range h.stageHandlers() {
			prefix := "/" + string(stage)
			api.Post(prefix+"/{applicationId}", h.submit(stage, fn))
			api.Post(prefix+"/", h.submit(stage, fn))
		}
		for _, stage := range models.Stages {
			prefix := "/" + string(stage)
			api.Get(prefix+"/status/{applicationId}", h.status(stage))
			api.Get(prefix+"/status/", h.status(stage))
			api.Post(prefix+"/review/{applicationId}", h.review(stage))
		}

		api.Get("/applications/{applicationId}", h.Application)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, Envelope{
			Success: false,
			Status:  statusError,
			Code:    "ROUTE_NOT_FOUND",
			Message: "no route for " + r.Method + " " + r.URL.Path,
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Envelope{
			Success: false,
			Status:  statusError,
			Code:    string(apperrors.ErrCodeMalformedRequest),
			Message: r.Method + " not allowed on " + r.URL.Path,
		})
	})
	return r
}
