// Package metrics holds the Prometheus instruments for the supply chain
// orchestrator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups all orchestrator counters. A nil *Metrics is valid and
// records nothing, so tests can pass nil.
type Metrics struct {
	AssetsRegistered      *prometheus.CounterVec
	HandoversRecorded     prometheus.Counter
	ConditionsRecorded    prometheus.Counter
	PurchasabilityChecks  *prometheus.CounterVec
	VerdictCacheHits      prometheus.Counter
}

// New creates and registers all orchestrator metrics.
func New() *Metrics {
	return &Metrics{
		AssetsRegistered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_assets_registered_total",
			Help: "Total assets registered, by ledger variant",
		}, []string{"variant"}),
		HandoversRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_handovers_recorded_total",
			Help: "Total custody handovers appended across all assets",
		}),
		ConditionsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_conditions_recorded_total",
			Help: "Total transit condition records logged",
		}),
		PurchasabilityChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_purchasability_checks_total",
			Help: "Total purchasability evaluations, by verdict",
		}, []string{"verdict"}),
		VerdictCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_verdict_cache_hits_total",
			Help: "Purchasability checks served from the verdict cache",
		}),
	}
}

// IncAssetsRegistered counts one asset registration for a variant.
func (m *Metrics) IncAssetsRegistered(variant string) {
	if m == nil {
		return
	}
	m.AssetsRegistered.WithLabelValues(variant).Inc()
}

// IncHandoversRecorded counts one appended handover.
func (m *Metrics) IncHandoversRecorded() {
	if m == nil {
		return
	}
	m.HandoversRecorded.Inc()
}

// IncConditionsRecorded counts one logged conditions record.
func (m *Metrics) IncConditionsRecorded() {
	if m == nil {
		return
	}
	m.ConditionsRecorded.Inc()
}

// IncPurchasabilityChecks counts one evaluation with its verdict label
// ("valid" or "rejected").
func (m *Metrics) IncPurchasabilityChecks(verdict string) {
	if m == nil {
		return
	}
	m.PurchasabilityChecks.WithLabelValues(verdict).Inc()
}

// IncVerdictCacheHits counts one cache-served check.
func (m *Metrics) IncVerdictCacheHits() {
	if m == nil {
		return
	}
	m.VerdictCacheHits.Inc()
}
