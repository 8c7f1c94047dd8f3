package workflow

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/onnwee/docflow/internal/audit"
)

// Audit messages.
const (
	msgStartup          = "UI initialized. Audit trail started."
	msgSignatureInvalid = "Signature failed validation. Provide username and valid password."
)

// MinPasswordLength is the shortest password a signature attempt may carry,
// counted in UTF-16 code units like the browser form's password.length.
const MinPasswordLength = 4

// SignatureAttempt is a user-submitted electronic signature.
// It is validated once and never stored; Password is never logged.
type SignatureAttempt struct {
	Username string
	Meaning  string
	Password string
}

// valid reports whether the attempt passes validation. username is the trimmed name.
func (a SignatureAttempt) valid() (username string, ok bool) {
	username = strings.TrimSpace(a.Username)
	return username, username != "" && passwordLength(a.Password) >= MinPasswordLength
}

// passwordLength counts UTF-16 code units, so "日本語" is 3 and an emoji is 2.
func passwordLength(password string) int {
	return len(utf16.Encode([]rune(password)))
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the structured logger for operational logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// Controller owns the current workflow state and emits an audit entry for every
// operation. Operations are serialized: each runs to completion, including delivery
// to the sink, before the next one starts, so entries reach the sink in call order.
type Controller struct {
	mu      sync.Mutex
	current State
	sink    audit.Sink

	now     func() time.Time
	logger  *slog.Logger
	metrics *Metrics
}

// NewController creates a controller in the Draft state and emits the startup entry.
// A nil sink discards entries.
func NewController(sink audit.Sink, opts ...Option) *Controller {
	if sink == nil {
		sink = audit.SinkFunc(func(audit.Entry) {})
	}
	c := &Controller{
		current: sequence[0],
		sink:    sink,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.setState(c.current)
	}
	c.logger.Info("workflow controller started", "state", string(c.current))
	c.emit(audit.SeverityInfo, msgStartup)
	return c
}

// Current returns the current state.
func (c *Controller) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Next returns the legal successor of the current state; ok is false once Archived.
func (c *Controller) Next() (State, bool) {
	return c.Current().Next()
}

// TransitionResult is the outcome of a transition request. From and Current are
// read under the same lock that produced Entry.
type TransitionResult struct {
	From     State
	Current  State
	Accepted bool
	Entry    audit.Entry
}

// RequestTransition moves to target if it is the immediate successor of the current
// state. Any other target, including unknown names, leaves the state unchanged and
// yields a warning entry.
func (c *Controller) RequestTransition(target State) audit.Entry {
	return c.Transition(target).Entry
}

// Transition is RequestTransition that also reports the states around the entry.
func (c *Controller) Transition(target State) TransitionResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.current
	if !CanTransition(from, target) {
		c.logger.Warn("workflow transition rejected", "from", string(from), "target", string(target))
		if c.metrics != nil {
			c.metrics.observeTransition(false)
		}
		entry := c.emit(audit.SeverityWarning, fmt.Sprintf("Invalid transition from %s to %s.", from, target))
		return TransitionResult{From: from, Current: from, Entry: entry}
	}

	c.current = target
	c.logger.Info("workflow transition accepted", "from", string(from), "to", string(target))
	if c.metrics != nil {
		c.metrics.observeTransition(true)
		c.metrics.setState(target)
	}
	entry := c.emit(audit.SeveritySuccess, fmt.Sprintf("Workflow moved to %s.", target))
	return TransitionResult{From: from, Current: target, Accepted: true, Entry: entry}
}

// RecordDraftSave records a draft save. It always succeeds and never changes state.
func (c *Controller) RecordDraftSave(docID string, version int, role string) audit.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	docID = strings.TrimSpace(docID)
	c.logger.Info("draft saved", "doc_id", docID, "version", version, "role", role)
	if c.metrics != nil {
		c.metrics.observeDraftSave()
	}
	return c.emit(audit.SeveritySuccess, fmt.Sprintf("Draft saved for %s v%d by %s.", docID, version, role))
}

// ApplySignature validates attempt and records the outcome. Signatures are
// independent of the workflow state.
func (c *Controller) ApplySignature(attempt SignatureAttempt) audit.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	username, ok := attempt.valid()
	if c.metrics != nil {
		c.metrics.observeSignature(ok)
	}
	if !ok {
		c.logger.Warn("signature rejected", "username_present", username != "")
		return c.emit(audit.SeverityWarning, msgSignatureInvalid)
	}

	c.logger.Info("signature applied", "username", username, "meaning", attempt.Meaning)
	return c.emit(audit.SeveritySuccess, fmt.Sprintf("Electronic signature applied by %s (%s).", username, attempt.Meaning))
}

// emit builds an entry and forwards it to the sink. Caller holds c.mu.
func (c *Controller) emit(severity audit.Severity, message string) audit.Entry {
	entry := audit.NewEntry(c.now(), severity, message)
	c.sink.Append(entry)
	return entry
}
