package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/odm/v1/observability"
	"github.com/Aleph-Alpha/odm/v1/orm"
)

// Operation outcome labels.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
)

// ObserveOperation counts and times one reported operation.
func (m *Metrics) ObserveOperation(op observability.OperationContext) {
	status := StatusSuccess
	if op.Error != nil {
		status = StatusError
		if errors.Is(op.Error, orm.ErrObjectNotFound) {
			status = StatusNotFound
		}
	}

	m.operationsTotal.WithLabelValues(op.Component, op.Operation, status).Inc()
	m.operationDuration.WithLabelValues(op.Component, op.Operation).Observe(op.Duration.Seconds())
	if op.Size > 0 {
		m.rowsTotal.WithLabelValues(op.Component, op.Operation).Add(float64(op.Size))
	}
}

// SetConnections records the checked-out and idle connections of pool.
func (m *Metrics) SetConnections(pool string, inUse, idle int) {
	m.connections.WithLabelValues(pool, "in_use").Set(float64(inUse))
	m.connections.WithLabelValues(pool, "idle").Set(float64(idle))
}

// CreateCounter creates a CounterVec and registers it with the service label.
func (m *Metrics) CreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := m.createCounterVec(name, help, labels)
	m.registerer.MustRegister(counter)
	return counter
}

// CreateHistogram creates a HistogramVec and registers it with the service label.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hist := m.createHistogramVec(name, help, labels, buckets)
	m.registerer.MustRegister(hist)
	return hist
}

// CreateGauge creates a GaugeVec and registers it with the service label.
func (m *Metrics) CreateGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := m.createGaugeVec(name, help, labels)
	m.registerer.MustRegister(gauge)
	return gauge
}

func (m *Metrics) createCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func (m *Metrics) createHistogramVec(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

func (m *Metrics) createGaugeVec(name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}
