package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/docflow/internal/audit"
	"github.com/onnwee/docflow/internal/middleware"
	"github.com/onnwee/docflow/internal/tracing"
)

// DefaultAuditPageSize is used when no page size is configured.
const DefaultAuditPageSize = 50

// AuditHandlers serves the audit trail.
type AuditHandlers struct {
	trail    audit.Lister
	pageSize int
	logger   *slog.Logger
}

// NewAuditHandlers creates audit handlers. pageSize applies when the request has no limit.
func NewAuditHandlers(trail audit.Lister, pageSize int, logger *slog.Logger) *AuditHandlers {
	if pageSize <= 0 {
		pageSize = DefaultAuditPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditHandlers{trail: trail, pageSize: pageSize, logger: logger}
}

// ListAudit handles GET /api/v1/audit.
//
// Query parameters:
//   - limit: maximum entries, newest first (default page size, 0 = all)
//   - format: json (default) or csv
//   - severity: info, success or warning
//   - from, to: RFC 3339 bounds, inclusive
func (h *AuditHandlers) ListAudit(w http.ResponseWriter, r *http.Request) {
	opts, code, msg := h.parseExportOptions(r)
	if code != "" {
		ctx := middleware.SetErrorCode(r.Context(), code)
		WriteError(w, ctx, StatusCodeMapping(code), code, msg)
		return
	}

	ctx, endSpan := tracing.StartAuditSpan(r.Context(), tracing.AuditOperationExport)
	data, err := audit.Export(h.trail, opts)
	endSpan(err)
	if err != nil {
		if errors.Is(err, audit.ErrUnsupportedFormat) {
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeUnsupportedFormat, "format must be json or csv")
			return
		}
		h.logger.ErrorContext(ctx, "audit export failed", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to export audit trail")
		return
	}

	switch opts.Format {
	case audit.ExportFormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="audit-trail.csv"`)
	default:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write audit export", "error", err)
	}
}

// parseExportOptions returns an error code and message when the query is unusable.
func (h *AuditHandlers) parseExportOptions(r *http.Request) (audit.ExportOptions, string, string) {
	q := r.URL.Query()
	opts := audit.ExportOptions{
		Format: audit.ExportFormatJSON,
		Limit:  h.pageSize,
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return opts, ErrCodeBadRequest, "limit must be a non-negative integer"
		}
		opts.Limit = limit
	}

	if raw := q.Get("format"); raw != "" {
		opts.Format = audit.ExportFormat(strings.ToLower(raw))
		if opts.Format != audit.ExportFormatJSON && opts.Format != audit.ExportFormatCSV {
			return opts, ErrCodeUnsupportedFormat, "format must be json or csv"
		}
	}

	if raw := q.Get("severity"); raw != "" {
		opts.Severity = audit.Severity(raw)
		if !opts.Severity.Valid() {
			return opts, ErrCodeValidation, "severity must be info, success or warning"
		}
	}

	for _, bound := range []struct {
		name string
		dst  *time.Time
	}{{"from", &opts.From}, {"to", &opts.To}} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return opts, ErrCodeBadRequest, bound.name + " must be an RFC 3339 timestamp"
		}
		*bound.dst = t
	}
	if !opts.From.IsZero() && !opts.To.IsZero() && opts.From.After(opts.To) {
		return opts, ErrCodeValidation, "from must not be after to"
	}

	return opts, "", ""
}
