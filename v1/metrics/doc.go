// Package metrics exposes database runtime metrics to Prometheus.
//
// *Metrics owns a private registry with a constant "service" label and
// implements observability.Observer. Wired as the orm observer it records,
// per component and operation:
//
//	db_operations_total{component, operation, status}   status: success, error, not_found
//	db_operation_duration_seconds{component, operation}
//	db_rows_total{component, operation}
//	db_connections{pool, state}                         state: in_use, idle
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "inventory"})
//	db := orm.NewDatabase(sqlDB, orm.Options{Observer: m})
//	go m.Server.ListenAndServe()
//
// Additional application metrics can be registered with CreateCounter,
// CreateHistogram and CreateGauge. With fx, FXModule provides *Metrics and
// MetricsCollector and runs the server between start and stop.
package metrics
