package audit

import (
	"testing"
	"time"
)

func TestNewEntry_TimestampFormat(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2026, 10, 14, 11, 30, 15, 123_456_789, loc)

	entry := NewEntry(local, SeveritySuccess, "Workflow moved to Review.")

	if entry.Timestamp != "2026-10-14T09:30:15.123Z" {
		t.Errorf("Timestamp = %q, want 2026-10-14T09:30:15.123Z", entry.Timestamp)
	}
	if entry.Severity != SeveritySuccess {
		t.Errorf("Severity = %q, want %q", entry.Severity, SeveritySuccess)
	}
	if entry.Message != "Workflow moved to Review." {
		t.Errorf("Message = %q", entry.Message)
	}
}

func TestParseTimestamp_RoundTrip(t *testing.T) {
	ts := time.Date(2026, 10, 14, 9, 30, 0, 5_000_000, time.UTC)

	parsed, err := ParseTimestamp(FormatTimestamp(ts))
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	if !parsed.Equal(ts) {
		t.Errorf("parsed = %v, want %v", parsed, ts)
	}
}

func TestSeverity_Valid(t *testing.T) {
	tests := []struct {
		severity Severity
		want     bool
	}{
		{SeverityInfo, true},
		{SeveritySuccess, true},
		{SeverityWarning, true},
		{"", false},
		{"error", false},
		{"Warning", false},
	}

	for _, tt := range tests {
		if got := tt.severity.Valid(); got != tt.want {
			t.Errorf("Severity(%q).Valid() = %v, want %v", tt.severity, got, tt.want)
		}
	}
}
