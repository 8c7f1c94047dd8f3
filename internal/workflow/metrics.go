package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricTransitions  = "workflow_transitions_total"
	MetricSignatures   = "workflow_signatures_total"
	MetricDraftsSaved  = "workflow_drafts_saved_total"
	MetricCurrentState = "workflow_state"
)

// Outcome label values.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Metrics contains Prometheus metrics for controller operations.
// All operations are thread-safe.
type Metrics struct {
	transitions  *prometheus.CounterVec
	signatures   *prometheus.CounterVec
	draftsSaved  prometheus.Counter
	currentState *prometheus.GaugeVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricTransitions,
				Help: "Total number of workflow transition requests by outcome",
			},
			[]string{"outcome"},
		),
		signatures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSignatures,
				Help: "Total number of electronic signature attempts by outcome",
			},
			[]string{"outcome"},
		),
		draftsSaved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricDraftsSaved,
				Help: "Total number of recorded draft saves",
			},
		),
		currentState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricCurrentState,
				Help: "Current workflow state (1 for the active state, 0 otherwise)",
			},
			[]string{"state"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.transitions,
		m.signatures,
		m.draftsSaved,
		m.currentState,
	}
}

func (m *Metrics) observeTransition(accepted bool) {
	m.transitions.WithLabelValues(outcome(accepted)).Inc()
}

func (m *Metrics) observeSignature(accepted bool) {
	m.signatures.WithLabelValues(outcome(accepted)).Inc()
}

func (m *Metrics) observeDraftSave() {
	m.draftsSaved.Inc()
}

// setState marks current as the only active state.
func (m *Metrics) setState(current State) {
	for _, s := range sequence {
		v := 0.0
		if s == current {
			v = 1
		}
		m.currentState.WithLabelValues(string(s)).Set(v)
	}
}

func outcome(accepted bool) string {
	if accepted {
		return OutcomeAccepted
	}
	return OutcomeRejected
}
