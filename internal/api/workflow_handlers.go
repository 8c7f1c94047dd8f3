package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/onnwee/docflow/internal/audit"
	"github.com/onnwee/docflow/internal/middleware"
	"github.com/onnwee/docflow/internal/tracing"
	"github.com/onnwee/docflow/internal/workflow"
	"go.opentelemetry.io/otel/attribute"
)

// Draft form defaults.
const (
	DefaultDraftVersion = 1
	DefaultDraftRole    = "Author"
)

// maxRequestBodyBytes caps JSON request bodies.
const maxRequestBodyBytes = 64 << 10

// Roles offered by the draft form.
var Roles = []string{"Author", "Reviewer", "Approver"}

// SignatureMeanings offered by the signature form.
var SignatureMeanings = []string{"Review", "Approval", "Authorship"}

// WorkflowHandlers exposes the workflow controller over JSON.
type WorkflowHandlers struct {
	controller *workflow.Controller
	logger     *slog.Logger
}

// NewWorkflowHandlers creates workflow handlers. A nil logger falls back to slog.Default().
func NewWorkflowHandlers(controller *workflow.Controller, logger *slog.Logger) *WorkflowHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkflowHandlers{controller: controller, logger: logger}
}

// WorkflowResponse describes the current workflow position.
type WorkflowResponse struct {
	Current  workflow.State   `json:"current"`
	Next     *workflow.State  `json:"next"`
	States   []workflow.State `json:"states"`
	Terminal bool             `json:"terminal"`
}

// TransitionRequest is the body of POST /api/v1/workflow/transitions.
type TransitionRequest struct {
	Target string `json:"target"`
}

// TransitionResponse reports the outcome of a transition request.
// A rejected transition is a normal outcome, not an HTTP error.
type TransitionResponse struct {
	Accepted bool           `json:"accepted"`
	Current  workflow.State `json:"current"`
	Entry    audit.Entry    `json:"entry"`
}

// DraftRequest is the body of POST /api/v1/documents/drafts.
// Version and Role default to DefaultDraftVersion and DefaultDraftRole when omitted.
type DraftRequest struct {
	DocID   string  `json:"doc_id"`
	Version *int    `json:"version"`
	Role    *string `json:"role"`
}

// EntryResponse wraps the audit entry produced by an operation.
type EntryResponse struct {
	Entry audit.Entry `json:"entry"`
}

// SignatureRequest is the body of POST /api/v1/signatures.
type SignatureRequest struct {
	Username string `json:"username"`
	Meaning  string `json:"meaning"`
	Password string `json:"password"`
}

// SignatureResponse reports the outcome of a signature attempt.
type SignatureResponse struct {
	Accepted bool        `json:"accepted"`
	Entry    audit.Entry `json:"entry"`
}

// GetWorkflow handles GET /api/v1/workflow.
func (h *WorkflowHandlers) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, newWorkflowResponse(h.controller.Current()))
}

func newWorkflowResponse(current workflow.State) WorkflowResponse {
	resp := WorkflowResponse{
		Current:  current,
		States:   workflow.States(),
		Terminal: current.Terminal(),
	}
	if next, ok := current.Next(); ok {
		resp.Next = &next
	}
	return resp
}

// RequestTransition handles POST /api/v1/workflow/transitions.
func (h *WorkflowHandlers) RequestTransition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, endSpan := tracing.StartSpan(r.Context(), "workflow.request_transition")
	defer endSpan(nil)

	res := h.controller.Transition(workflow.State(req.Target))

	tracing.SetAttributes(ctx,
		tracing.AttrWorkflowOperation.String("request_transition"),
		tracing.AttrWorkflowFrom.String(string(res.From)),
		tracing.AttrWorkflowTarget.String(req.Target),
		tracing.AttrWorkflowAccepted.Bool(res.Accepted),
		attribute.String("audit.severity", string(res.Entry.Severity)),
	)
	if !res.Accepted {
		tracing.AddEvent(ctx, "transition.rejected")
	}

	writeJSON(w, r, http.StatusOK, TransitionResponse{
		Accepted: res.Accepted,
		Current:  res.Current,
		Entry:    res.Entry,
	})
}

// RecordDraft handles POST /api/v1/documents/drafts.
func (h *WorkflowHandlers) RecordDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	version := DefaultDraftVersion
	if req.Version != nil {
		version = *req.Version
	}
	role := DefaultDraftRole
	if req.Role != nil {
		role = *req.Role
	}

	ctx, endSpan := tracing.StartSpan(r.Context(), "workflow.record_draft")
	defer endSpan(nil)

	entry := h.controller.RecordDraftSave(req.DocID, version, role)
	tracing.SetAttributes(ctx,
		tracing.AttrWorkflowOperation.String("record_draft"),
		attribute.Int("document.version", version),
		attribute.String("audit.severity", string(entry.Severity)),
	)

	writeJSON(w, r, http.StatusOK, EntryResponse{Entry: entry})
}

// ApplySignature handles POST /api/v1/signatures.
// The password is handed to the controller once and never echoed or logged.
func (h *WorkflowHandlers) ApplySignature(w http.ResponseWriter, r *http.Request) {
	var req SignatureRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, endSpan := tracing.StartSpan(r.Context(), "workflow.apply_signature")
	defer endSpan(nil)

	entry := h.controller.ApplySignature(workflow.SignatureAttempt{
		Username: req.Username,
		Meaning:  req.Meaning,
		Password: req.Password,
	})
	accepted := entry.Severity == audit.SeveritySuccess

	tracing.SetAttributes(ctx,
		tracing.AttrWorkflowOperation.String("apply_signature"),
		tracing.AttrWorkflowAccepted.Bool(accepted),
		attribute.String("audit.severity", string(entry.Severity)),
	)
	if !accepted {
		tracing.AddEvent(ctx, "signature.rejected")
	}

	writeJSON(w, r, http.StatusOK, SignatureResponse{Accepted: accepted, Entry: entry})
}

// errTrailingData reports bytes after the JSON value in a request body.
var errTrailingData = errors.New("unexpected data after JSON value")

// decodeJSON decodes exactly one JSON value from the request body into v, writing a
// 400 and returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errTrailingData
			if extra != nil {
				err = extra
			}
		}
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		message := "Invalid JSON in request body"
		if errors.As(err, &maxErr) {
			message = "Request body too large"
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, message)
		return false
	}
	return true
}
