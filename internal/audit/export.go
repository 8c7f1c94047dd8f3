package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ExportFormat defines supported export formats.
type ExportFormat string

const (
	// ExportFormatCSV exports records as comma-separated values.
	ExportFormatCSV ExportFormat = "csv"
	// ExportFormatJSON exports records as a JSON array.
	ExportFormatJSON ExportFormat = "json"
)

// ErrUnsupportedFormat is returned for an unknown export format.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ExportOptions configures audit trail export parameters.
type ExportOptions struct {
	Format   ExportFormat // Export format (csv or json)
	From     time.Time    // Start of time range (inclusive)
	To       time.Time    // End of time range (inclusive)
	Severity Severity     // Filter by severity (optional)
	Limit    int          // Maximum number of records to export (0 = no limit)
}

// Export renders records from lister matching opts, newest first.
func Export(lister Lister, opts ExportOptions) ([]byte, error) {
	if opts.Format != ExportFormatCSV && opts.Format != ExportFormatJSON {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.Format)
	}

	// Filter everything first, then apply the limit
	records := Filter(lister.Newest(0), opts)
	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}

	switch opts.Format {
	case ExportFormatCSV:
		return exportToCSV(records)
	default:
		return exportToJSON(records)
	}
}

// Filter keeps records inside the time range and matching the severity of opts.
// Records whose timestamp cannot be parsed are kept only when no time range is set.
func Filter(records []Record, opts ExportOptions) []Record {
	ranged := !opts.From.IsZero() || !opts.To.IsZero()

	filtered := make([]Record, 0, len(records))
	for _, rec := range records {
		if opts.Severity != "" && rec.Entry.Severity != opts.Severity {
			continue
		}
		if ranged {
			ts, err := ParseTimestamp(rec.Entry.Timestamp)
			if err != nil {
				continue
			}
			if !opts.From.IsZero() && ts.Before(opts.From) {
				continue
			}
			if !opts.To.IsZero() && ts.After(opts.To) {
				continue
			}
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

// exportToCSV exports records to CSV format.
func exportToCSV(records []Record) ([]byte, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	header := []string{
		"ID",
		"Sequence",
		"Timestamp (UTC)",
		"Severity",
		"Message",
		"Previous Hash",
		"Hash",
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			strconv.FormatInt(rec.Sequence, 10),
			rec.Entry.Timestamp,
			string(rec.Entry.Severity),
			rec.Entry.Message,
			rec.PreviousHash,
			rec.Hash,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportRecord is the JSON shape of an exported record.
type ExportRecord struct {
	ID           string   `json:"id"`
	Sequence     int64    `json:"sequence"`
	Timestamp    string   `json:"timestamp"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
	PreviousHash string   `json:"previous_hash,omitempty"`
	Hash         string   `json:"hash"`
}

// ToExportRecords converts records to their JSON shape.
func ToExportRecords(records []Record) []ExportRecord {
	out := make([]ExportRecord, len(records))
	for i, rec := range records {
		out[i] = ExportRecord{
			ID:           rec.ID,
			Sequence:     rec.Sequence,
			Timestamp:    rec.Entry.Timestamp,
			Severity:     rec.Entry.Severity,
			Message:      rec.Entry.Message,
			PreviousHash: rec.PreviousHash,
			Hash:         rec.Hash,
		}
	}
	return out
}

// exportToJSON exports records to JSON format.
func exportToJSON(records []Record) ([]byte, error) {
	data, err := json.MarshalIndent(ToExportRecords(records), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}
