// Package metrics exposes cache and recommendation counters to prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recommendation outcomes.
const (
	OutcomeCached    = "cached"
	OutcomeReady     = "ready"
	OutcomeFallback  = "fallback"
	OutcomeEmpty     = "empty"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
)

// Metrics groups the service counters. A nil *Metrics records nothing.
type Metrics struct {
	cacheLookups    *prometheus.CounterVec
	recommendations *prometheus.CounterVec
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "cache_lookups_total",
			Help:      "Keyed cache lookups by category, namespace and result.",
		}, []string{"category", "namespace", "result"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "recommendations_total",
			Help:      "Recommendation refresh outcomes by category.",
		}, []string{"category", "outcome"}),
	}
	reg.MustRegister(m.cacheLookups, m.recommendations)
	return m
}

// CacheLookup records a hit or miss.
func (m *Metrics) CacheLookup(category, namespace string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(category, namespace, result).Inc()
}

// Recommendation records one refresh outcome.
func (m *Metrics) Recommendation(category, outcome string) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(category, outcome).Inc()
}
