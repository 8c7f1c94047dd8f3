// Package audit provides the append-only audit trail for the document workflow.
// Every workflow action, accepted or rejected, is recorded as an Entry and
// delivered to one or more Sinks.
package audit

import (
	"time"
)

// Severity classifies an audit entry for display.
type Severity string

const (
	// SeverityInfo marks plain informational entries (e.g. startup).
	SeverityInfo Severity = "info"
	// SeveritySuccess marks an accepted action.
	SeveritySuccess Severity = "success"
	// SeverityWarning marks a rejected action.
	SeverityWarning Severity = "warning"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning:
		return true
	}
	return false
}

// TimestampLayout is the ISO-8601 layout used for entry timestamps (UTC, milliseconds).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Entry is a single immutable audit event.
type Entry struct {
	Timestamp string   `json:"timestamp"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
}

// NewEntry builds an entry stamped with t in UTC.
func NewEntry(t time.Time, severity Severity, message string) Entry {
	return Entry{
		Timestamp: FormatTimestamp(t),
		Message:   message,
		Severity:  severity,
	}
}

// FormatTimestamp renders t in the entry timestamp layout, always in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses an entry timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// Record is an Entry as stored by the in-memory trail.
type Record struct {
	ID       string
	Sequence int64
	Entry    Entry

	// Tamper detection
	PreviousHash string // SHA-256 hash of the previous record, empty for the first
	Hash         string // SHA-256 over sequence, entry fields and PreviousHash
}
