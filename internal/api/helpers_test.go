package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/onnwee/docflow/internal/audit"
	"github.com/onnwee/docflow/internal/workflow"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// testClock returns a clock starting at 2026-10-14 09:30 UTC that advances 1ms per call.
func testClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Millisecond)
		return current
	}
}

type testServer struct {
	handler    http.Handler
	trail      *audit.InMemoryTrail
	controller *workflow.Controller
	logs       *bytes.Buffer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	trail := audit.NewInMemoryTrail()
	controller := workflow.NewController(trail,
		workflow.WithClock(testClock()),
		workflow.WithLogger(logger),
	)

	handler := NewRouter(RouterConfig{
		UI:       NewUIHandlers(controller, trail, 0, logger),
		Workflow: NewWorkflowHandlers(controller, logger),
		Audit:    NewAuditHandlers(trail, DefaultAuditPageSize, logger),
		Health:   NewHealthHandlers(HealthHandlersConfig{Logger: logger}),
		Logger:   logger,
	})

	return &testServer{handler: handler, trail: trail, controller: controller, logs: logs}
}

func (s *testServer) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) postJSON(t *testing.T, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, target, strings.NewReader(body), "application/json")
}

func (s *testServer) postForm(t *testing.T, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, target, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response: %v, body: %s", err, w.Body.String())
	}
	return v
}

// lastEntry returns the newest entry in the trail.
func (s *testServer) lastEntry(t *testing.T) audit.Entry {
	t.Helper()
	newest := s.trail.Newest(1)
	if len(newest) != 1 {
		t.Fatal("expected at least one audit entry")
	}
	return newest[0].Entry
}

func newPageRecorder(t *testing.T, h *UIHandlers) string {
	t.Helper()
	w := httptest.NewRecorder()
	h.Page(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	return w.Body.String()
}

// installSpanRecorder routes the global tracer provider to an in-memory recorder.
func installSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return recorder
}

func endedSpan(t *testing.T, recorder *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, sp := range recorder.Ended() {
		if sp.Name() == name {
			return sp
		}
	}
	t.Fatalf("missing %s span", name)
	return nil
}

func spanAttributes(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}
