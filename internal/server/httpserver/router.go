package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rob-jonesdevlab/ods-signage/internal/server/httpserver/handler"
	"github.com/rob-jonesdevlab/ods-signage/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves the JSON endpoints.
	Handler *handler.Handler

	// Metrics is served at /metrics and records request counts.
	// Nil serves the global registry and records nothing.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger
}

// NewRouter creates the ops router.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := cfg.Handler
	if h == nil {
		h = handler.New(handler.Config{Logger: logger})
	}

	r := chi.NewRouter()
	r.Use(Recover(logger), RequestID(), AccessLog(logger, cfg.Metrics))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/version", h.Version)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	} else {
		r.Method(http.MethodGet, "/metrics", metric.Handler())
	}

	return r
}
