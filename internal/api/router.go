package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/onnwee/docflow/internal/middleware"
)

// RouterConfig holds the handlers and middleware dependencies for NewRouter.
// Nil handler groups are not mounted.
type RouterConfig struct {
	UI       *UIHandlers
	Workflow *WorkflowHandlers
	Audit    *AuditHandlers
	Health   *HealthHandlers

	Logger *slog.Logger

	// HTTPMetrics records per-route request metrics when set.
	HTTPMetrics *middleware.Metrics
	// MetricsHandler is mounted at /metrics when set (typically promhttp).
	MetricsHandler http.Handler
	// TracingServiceName enables the OpenTelemetry middleware when non-empty.
	TracingServiceName string
}

// NewRouter builds the HTTP handler. Middleware order is
// RequestID, Tracing, Logging, HTTPMetrics.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Use(middleware.RequestID)
	if cfg.TracingServiceName != "" {
		r.Use(middleware.Tracing(cfg.TracingServiceName))
	}
	r.Use(middleware.Logging(logger))
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.HTTPMetrics(cfg.HTTPMetrics))
	}

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Health)
		r.Get("/ready", cfg.Health.Ready)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	if cfg.UI != nil {
		r.Get("/", cfg.UI.Page)
		r.Route("/ui", func(r chi.Router) {
			r.Post("/transition", cfg.UI.PostTransition)
			r.Post("/draft", cfg.UI.PostDraft)
			r.Post("/signature", cfg.UI.PostSignature)
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Workflow != nil {
			r.Get("/workflow", cfg.Workflow.GetWorkflow)
			r.Post("/workflow/transitions", cfg.Workflow.RequestTransition)
			r.Post("/documents/drafts", cfg.Workflow.RecordDraft)
			r.Post("/signatures", cfg.Workflow.ApplySignature)
		}
		if cfg.Audit != nil {
			r.Get("/audit", cfg.Audit.ListAudit)
		}
	})

	return r
}
