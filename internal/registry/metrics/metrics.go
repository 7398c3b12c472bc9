// Package metrics exposes Prometheus collectors for the registry service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry.
type Metrics struct {
	SearchesTotal    *prometheus.CounterVec
	LookupMisses     prometheus.Counter
	RecordsIngested  prometheus.Counter
	RowsIndexed      prometheus.Counter
	SearchDurationMs prometheus.Histogram
}

// New creates and registers all registry metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_searches_total",
			Help: "Total searches served, labeled by the strategy that answered them",
		}, []string{"strategy"}),
		LookupMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "registry_lookup_misses_total",
			Help: "Total identifier lookups that found no record",
		}),
		RecordsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "registry_records_ingested_total",
			Help: "Total company records inserted by ingestion runs",
		}),
		RowsIndexed: factory.NewCounter(prometheus.CounterOpts{
			Name: "registry_rows_indexed_total",
			Help: "Total rows copied into the full-text index",
		}),
		SearchDurationMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "registry_search_duration_ms",
			Help:    "Search latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}
