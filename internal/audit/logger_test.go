package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type testLogLine struct {
	Level     string `json:"level"`
	Msg       string `json:"msg"`
	Timestamp string `json:"timestamp"`
	Severity  string `json:"severity"`
	Event     string `json:"event"`
}

func TestSlogSink_Levels(t *testing.T) {
	tests := []struct {
		severity  Severity
		wantLevel string
	}{
		{SeverityInfo, "INFO"},
		{SeveritySuccess, "INFO"},
		{SeverityWarning, "WARN"},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			buf := &bytes.Buffer{}
			sink := NewSlogSink(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

			sink.Append(entryAt(0, tt.severity, "Workflow moved to Review."))

			var line testLogLine
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("failed to parse log line: %v, log: %s", err, buf.String())
			}
			if line.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", line.Level, tt.wantLevel)
			}
			if line.Msg != "audit entry" {
				t.Errorf("msg = %q, want audit entry", line.Msg)
			}
			if line.Severity != string(tt.severity) {
				t.Errorf("severity = %q, want %q", line.Severity, tt.severity)
			}
			if line.Event != "Workflow moved to Review." {
				t.Errorf("event = %q", line.Event)
			}
			if line.Timestamp != "2026-10-14T09:30:00.000Z" {
				t.Errorf("timestamp = %q", line.Timestamp)
			}
		})
	}
}

func TestWriterSink_JSONLines(t *testing.T) {
	buf := &bytes.Buffer{}
	sink := NewWriterSink(buf, nil)

	sink.Append(entryAt(0, SeverityInfo, "UI initialized. Audit trail started."))
	sink.Append(entryAt(0, SeverityWarning, "Invalid transition from Draft to Archived."))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var e Entry
	if err := json.Unmarshal([]byte(lines[1]), &e); err != nil {
		t.Fatalf("failed to parse line: %v", err)
	}
	if e.Severity != SeverityWarning || e.Message != "Invalid transition from Draft to Archived." {
		t.Errorf("decoded entry = %+v", e)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterSink_ReportsWriteErrors(t *testing.T) {
	var reported []error
	sink := NewWriterSink(failingWriter{}, func(err error) { reported = append(reported, err) })

	sink.Append(entryAt(0, SeverityInfo, "a"))

	if len(reported) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(reported))
	}
	if reported[0].Error() != "disk full" {
		t.Errorf("reported error = %v", reported[0])
	}
}

func TestWriterSink_ReportsNilOnSuccess(t *testing.T) {
	var reported []error
	sink := NewWriterSink(&bytes.Buffer{}, func(err error) { reported = append(reported, err) })

	sink.Append(entryAt(0, SeverityInfo, "a"))
	sink.Append(entryAt(time.Second, SeveritySuccess, "b"))

	if len(reported) != 2 || reported[0] != nil || reported[1] != nil {
		t.Errorf("expected two nil reports, got %v", reported)
	}
}
