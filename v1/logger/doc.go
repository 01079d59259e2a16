// Package logger provides the zap-backed structured logger used across the
// module.
//
// Every method takes a message, an optional error and any number of field
// maps:
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Debug, ServiceName: "inventory"})
//	log.Info("database ready", nil, map[string]interface{}{"dialect": "mariadb"})
//	log.Error("rollback failed", err, nil)
//
// Entries are JSON on stderr with an ISO8601 "timestamp", the level in
// capitals, the caller, the process id and the service name.
//
// With Config.EnableTracing, the *WithContext variants add the trace_id and
// span_id of the OpenTelemetry span carried by the context:
//
//	log.ErrorWithContext(ctx, "transaction failed", err, nil)
//
// Packages that log declare a narrow Logger interface of their own; *Logger
// satisfies all of them. FXModule provides the logger to fx applications and
// syncs it on stop.
package logger
