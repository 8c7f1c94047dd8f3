package api

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/onnwee/docflow/internal/audit"
	"github.com/onnwee/docflow/internal/middleware"
	"github.com/onnwee/docflow/internal/tracing"
	"github.com/onnwee/docflow/internal/workflow"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// UIHandlers serves the single HTML page and its form posts.
// Each form post runs one controller operation and redirects back to the page.
type UIHandlers struct {
	controller *workflow.Controller
	trail      audit.Lister
	pageSize   int
	logger     *slog.Logger
}

// NewUIHandlers creates the page handlers. pageSize bounds the entries rendered (0 = all).
func NewUIHandlers(controller *workflow.Controller, trail audit.Lister, pageSize int, logger *slog.Logger) *UIHandlers {
	if pageSize < 0 {
		pageSize = DefaultAuditPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UIHandlers{controller: controller, trail: trail, pageSize: pageSize, logger: logger}
}

type pageData struct {
	Current        workflow.State
	Terminal       bool
	States         []workflow.State
	Roles          []string
	Meanings       []string
	DefaultVersion int
	DefaultRole    string
	Entries        []audit.Entry
}

// Page handles GET /.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request) {
	current := h.controller.Current()
	data := pageData{
		Current:        current,
		Terminal:       current.Terminal(),
		States:         workflow.States(),
		Roles:          Roles,
		Meanings:       SignatureMeanings,
		DefaultVersion: DefaultDraftVersion,
		DefaultRole:    DefaultDraftRole,
	}

	if h.trail != nil {
		ctx, endSpan := tracing.StartAuditSpan(r.Context(), tracing.AuditOperationList)
		records := h.trail.Newest(h.pageSize)
		tracing.SetAttributes(ctx, tracing.AttrAuditEntries.Int(len(records)))
		endSpan(nil)

		data.Entries = make([]audit.Entry, len(records))
		for i, rec := range records {
			data.Entries[i] = rec.Entry
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write page", "error", err)
	}
}

// PostTransition handles POST /ui/transition.
func (h *UIHandlers) PostTransition(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	h.controller.RequestTransition(workflow.State(r.PostFormValue("target")))
	redirectHome(w, r)
}

// PostDraft handles POST /ui/draft. An empty version uses DefaultDraftVersion.
func (h *UIHandlers) PostDraft(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	version := DefaultDraftVersion
	if raw := strings.TrimSpace(r.PostFormValue("version")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "version must be an integer")
			return
		}
		version = v
	}

	h.controller.RecordDraftSave(r.PostFormValue("doc_id"), version, r.PostFormValue("role"))
	redirectHome(w, r)
}

// PostSignature handles POST /ui/signature.
func (h *UIHandlers) PostSignature(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	h.controller.ApplySignature(workflow.SignatureAttempt{
		Username: r.PostFormValue("username"),
		Meaning:  r.PostFormValue("meaning"),
		Password: r.PostFormValue("password"),
	})
	redirectHome(w, r)
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := r.ParseForm(); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid form body")
		return false
	}
	return true
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
