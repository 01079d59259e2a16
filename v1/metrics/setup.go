package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a dedicated Prometheus registry, the database operation
// metrics and the HTTP server exposing them on /metrics.
//
// Metrics implements observability.Observer: pass it as orm.Options.Observer
// (the database fx module does this) and every statement execution and
// transaction directive is counted and timed.
type Metrics struct {
	// Server serves the registry on /metrics.
	Server *http.Server

	// Registry holds every metric of this instance. It is not the global
	// default registry.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	rowsTotal         *prometheus.CounterVec
	connections       *prometheus.GaugeVec
}

// NewMetrics creates the registry, registers the operation metrics (and the
// default collectors when enabled) and prepares, but does not start, the
// HTTP server.
//
// Registered metrics, all with the constant label service=cfg.ServiceName:
//   - db_operations_total{component, operation, status}
//   - db_operation_duration_seconds{component, operation}
//   - db_rows_total{component, operation}
//   - db_connections{pool, state}
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:     ":9090",
//	    ServiceName: "inventory",
//	})
//	db := orm.NewDatabase(sqlDB, orm.Options{Observer: m})
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
		namespace:  cfg.Namespace,
	}

	m.operationsTotal = m.createCounterVec("db_operations_total", "Number of database operations by outcome", []string{"component", "operation", "status"})
	m.operationDuration = m.createHistogramVec("db_operation_duration_seconds", "Duration of database operations in seconds", []string{"component", "operation"}, prometheus.DefBuckets)
	m.rowsTotal = m.createCounterVec("db_rows_total", "Rows affected or fetched by database operations", []string{"component", "operation"})
	m.connections = m.createGaugeVec("db_connections", "Connections of a pool by state", []string{"pool", "state"})

	wrappedRegistry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.rowsTotal,
		m.connections,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	addr := cfg.Address
	if addr == "" {
		addr = DefaultMetricsAddress
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	m.Server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return m
}
