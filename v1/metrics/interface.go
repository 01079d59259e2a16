package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/odm/v1/observability"
)

// MetricsCollector is the metrics surface of the database runtime. *Metrics
// implements it.
type MetricsCollector interface {
	observability.Observer

	// SetConnections reports the checked-out and idle connections of a pool.
	SetConnections(pool string, inUse, idle int)

	// CreateCounter creates and registers a CounterVec.
	CreateCounter(name, help string, labels []string) *prometheus.CounterVec

	// CreateHistogram creates and registers a HistogramVec.
	CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec

	// CreateGauge creates and registers a GaugeVec.
	CreateGauge(name, help string, labels []string) *prometheus.GaugeVec
}

var _ MetricsCollector = (*Metrics)(nil)
