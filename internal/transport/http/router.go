package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caseledger/internal/platform/metrics"
	"caseledger/internal/platform/middleware"
)

const requestTimeout = 30 * time.Second

// NewRouter assembles the middleware chain and mounts the API. Health and
// metrics stay outside the authenticated subtree so probes and scrapers need
// no token.
func NewRouter(handler *Handler, validator middleware.Validator, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.Latency(m))
		r.Use(middleware.RequireAuth(validator, logger))
		handler.Register(r)
	})

	return r
}
