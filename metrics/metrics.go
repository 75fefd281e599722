// Package metrics counts calls into the replacement functions.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "liveless"

// Translation paths.
const (
	PathRedirect    = "redirect"
	PathPassthrough = "passthrough"
)

// Discovery results.
const (
	DiscoveryOK      = "ok"
	DiscoveryNothing = "nothing_learned"
	DiscoveryFailed  = "failed"
	DiscoverySkipped = "skipped"
)

// Metrics holds the counters of one spoofing layer.
type Metrics struct {
	// SessionSearches counts synthetic search results handed out
	SessionSearches prometheus.Counter

	// SessionCalls counts stubbed session calls by operation
	SessionCalls *prometheus.CounterVec

	// QosLookups counts QoS lookups answered
	QosLookups prometheus.Counter

	// QosSamples counts fabricated QoS samples
	QosSamples prometheus.Counter

	// Translations counts address translations by path
	Translations *prometheus.CounterVec

	// Discoveries counts STUN discovery attempts by result
	Discoveries *prometheus.CounterVec

	// GateDecisions counts capability gate outcomes
	GateDecisions *prometheus.CounterVec
}

// New registers the counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionSearches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_searches_total",
			Help:      "Total number of synthetic session search results",
		}),
		SessionCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_calls_total",
			Help:      "Total number of stubbed session calls",
		}, []string{"op"}),
		QosLookups: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qos_lookups_total",
			Help:      "Total number of QoS lookups answered",
		}),
		QosSamples: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qos_samples_total",
			Help:      "Total number of fabricated QoS samples",
		}),
		Translations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_translations_total",
			Help:      "Total number of offline to online address translations",
		}, []string{"path"}),
		Discoveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stun_discoveries_total",
			Help:      "Total number of STUN discovery attempts",
		}, []string{"result"}),
		GateDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Total number of capability gate decisions",
		}, []string{"decision"}),
	}
}

func (m *Metrics) ObserveSearch() {
	if m == nil {
		return
	}
	m.SessionSearches.Inc()
}

func (m *Metrics) ObserveSessionCall(op string) {
	if m == nil {
		return
	}
	m.SessionCalls.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveQos(samples int) {
	if m == nil {
		return
	}
	m.QosLookups.Inc()
	m.QosSamples.Add(float64(samples))
}

func (m *Metrics) ObserveTranslation(path string) {
	if m == nil {
		return
	}
	m.Translations.WithLabelValues(path).Inc()
}

func (m *Metrics) ObserveDiscovery(result string) {
	if m == nil {
		return
	}
	m.Discoveries.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveGate(allowed bool) {
	if m == nil {
		return
	}
	decision := "refused"
	if allowed {
		decision = "allowed"
	}
	m.GateDecisions.WithLabelValues(decision).Inc()
}
