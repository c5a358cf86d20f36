// Package metrics exposes Prometheus counters for extraction runs and
// document dereferencing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "typeindex"

// Metrics holds the counters shared by the extractor and the dereferencer.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RunsTotal           *prometheus.CounterVec
	TypeIndexesFound    prometheus.Counter
	RegistrationsTotal  prometheus.Counter
	LinksEmitted        prometheus.Counter
	RunDuration         prometheus.Histogram
	DereferencesTotal   *prometheus.CounterVec
	DereferenceDuration prometheus.Histogram
	CacheHits           prometheus.Counter
}

// New registers all counters on reg (the default registerer when nil)
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "runs_total",
			Help:      "Extraction runs by outcome",
		}, []string{"outcome"}),
		TypeIndexesFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "type_indexes_found_total",
			Help:      "Type index declarations found in metadata streams",
		}),
		RegistrationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "registrations_total",
			Help:      "Type registrations read from type index documents",
		}),
		LinksEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "links_emitted_total",
			Help:      "Links emitted for crawling",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "run_duration_seconds",
			Help:      "Duration of extraction runs",
			Buckets:   prometheus.DefBuckets,
		}),
		DereferencesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dereference",
			Name:      "requests_total",
			Help:      "Document dereferences by outcome",
		}, []string{"outcome"}),
		DereferenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dereference",
			Name:      "duration_seconds",
			Help:      "Duration of document dereferences",
			Buckets:   prometheus.DefBuckets,
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dereference",
			Name:      "cache_hits_total",
			Help:      "Dereferences served from cache",
		}),
	}
}

// ObserveRun records the outcome of one extraction run
func (m *Metrics) ObserveRun(outcome string, seconds float64, indexes, registrations, links int) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(seconds)
	m.TypeIndexesFound.Add(float64(indexes))
	m.RegistrationsTotal.Add(float64(registrations))
	m.LinksEmitted.Add(float64(links))
}

// ObserveDereference records the outcome of one dereference
func (m *Metrics) ObserveDereference(outcome string, seconds float64, fromCache bool) {
	if m == nil {
		return
	}
	m.DereferencesTotal.WithLabelValues(outcome).Inc()
	m.DereferenceDuration.Observe(seconds)
	if fromCache {
		m.CacheHits.Inc()
	}
}

// WriteTextfile dumps the gatherer in the Prometheus text format
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
