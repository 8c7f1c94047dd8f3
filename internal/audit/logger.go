package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// SlogSink writes each entry to a structured logger.
// Warning entries are logged at WARN, everything else at INFO.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink backed by logger (slog.Default() when nil).
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Append logs entry.
func (s *SlogSink) Append(entry Entry) {
	level := slog.LevelInfo
	if entry.Severity == SeverityWarning {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(context.Background(), level, "audit entry",
		slog.String("timestamp", entry.Timestamp),
		slog.String("severity", string(entry.Severity)),
		slog.String("event", entry.Message),
	)
}

// WriterSink writes entries as JSON lines to an io.Writer (console or file).
type WriterSink struct {
	mu      sync.Mutex
	writer  io.Writer
	report  func(error)
}

// NewWriterSink creates a JSON-lines sink. report receives the outcome of every
// append: nil after a successful write, the marshal or write error otherwise.
// It may be nil, in which case outcomes are dropped.
func NewWriterSink(w io.Writer, report func(error)) *WriterSink {
	if report == nil {
		report = func(error) {}
	}
	return &WriterSink{writer: w, report: report}
}

// Append writes entry followed by a newline.
func (s *WriterSink) Append(entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		s.report(err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.writer.Write(append(data, '\n'))
	s.report(err)
}
