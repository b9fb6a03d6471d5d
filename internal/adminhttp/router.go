// Package adminhttp is the ambient admin surface added alongside a run:
// /healthz for liveness probes and /metrics for Prometheus scraping.
// Adapted from the teacher's internal/http router/middleware split, with
// the domain-ingestion route and its JSON error envelope dropped — this
// surface serves operators, not API clients.
package adminhttp

import (
	"net/http"

	"event-shipper/internal/shared/loggers"
	"event-shipper/internal/shared/metrics"

	"github.com/go-chi/chi/v5"
)

// NewRouter builds the admin HTTP surface.
func NewRouter(httpLogger loggers.Logger) http.Handler {
	router := chi.NewRouter()
	setupMiddleware(router, httpLogger)

	router.Get("/healthz", healthzHandler)
	router.Get("/metrics", metrics.PromHTTP.Handler().ServeHTTP)

	return router
}
