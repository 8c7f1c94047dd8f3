// Package main is the entry point for the docflow server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onnwee/docflow/internal/api"
	"github.com/onnwee/docflow/internal/audit"
	"github.com/onnwee/docflow/internal/config"
	"github.com/onnwee/docflow/internal/health"
	"github.com/onnwee/docflow/internal/middleware"
	"github.com/onnwee/docflow/internal/tracing"
	"github.com/onnwee/docflow/internal/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "docflow"

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("docflow document workflow server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	var auditOut io.Writer
	if cfg.AuditLogFile != "" {
		f, err := os.OpenFile(cfg.AuditLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			logger.Error("failed to open audit log file", "path", cfg.AuditLogFile, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		auditOut = f
	}

	tp, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TracingSampleRate,
		InsecureMode: cfg.TracingInsecure,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	logger.Info("tracing configured", "enabled", tp.IsEnabled())

	a, err := newApp(cfg, logger, auditOut)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Error("tracer provider shutdown failed", "error", err)
	}

	logger.Info("server stopped", "audit_entries", a.trail.Len())
}

// app is the wired server: audit sinks, controller and HTTP handler.
type app struct {
	trail       *audit.InMemoryTrail
	controller  *workflow.Controller
	registry    *prometheus.Registry
	writerCheck *health.WriteErrorChecker
	handler     http.Handler
}

// newApp wires every component. auditOut, when non-nil, receives a JSON-lines copy
// of each audit entry. Metrics go to a fresh registry so tests can build several apps.
func newApp(cfg *config.Config, logger *slog.Logger, auditOut io.Writer) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(reg); err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}
	wfMetrics := workflow.NewMetrics()
	if err := wfMetrics.Register(reg); err != nil {
		return nil, fmt.Errorf("register workflow metrics: %w", err)
	}

	trail := audit.NewInMemoryTrail()
	sinks := []audit.Sink{trail, audit.NewSlogSink(logger)}

	var writerCheck *health.WriteErrorChecker
	if auditOut != nil {
		writerCheck = health.NewWriteErrorChecker(cfg.AuditLogFile)
		sinks = append(sinks, audit.NewWriterSink(auditOut, func(err error) {
			writerCheck.Record(err)
			if err != nil {
				logger.Error("audit log write failed", "error", err)
			}
		}))
	}

	controller := workflow.NewController(audit.NewMultiSink(sinks...),
		workflow.WithLogger(logger),
		workflow.WithMetrics(wfMetrics),
	)

	healthCfg := api.HealthHandlersConfig{
		AuditChainChecker: health.NewAuditChainChecker(trail),
		MetricsEnabled:    true,
		Logger:            logger,
	}
	if writerCheck != nil {
		healthCfg.AuditWriterChecker = writerCheck
	}

	routerCfg := api.RouterConfig{
		UI:             api.NewUIHandlers(controller, trail, cfg.AuditPageSize, logger),
		Workflow:       api.NewWorkflowHandlers(controller, logger),
		Audit:          api.NewAuditHandlers(trail, cfg.AuditPageSize, logger),
		Health:         api.NewHealthHandlers(healthCfg),
		Logger:         logger,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
	if cfg.TracingEnabled {
		routerCfg.TracingServiceName = serviceName
	}

	return &app{
		trail:       trail,
		controller:  controller,
		registry:    reg,
		writerCheck: writerCheck,
		handler:     api.NewRouter(routerCfg),
	}, nil
}
