package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.Logger behind the (msg, err, fields) methods every
// package of this module logs through. The orm, mariadb, postgres, tracer
// and database packages each declare the subset they need as a local
// interface, which *Logger satisfies.
type Logger struct {
	// Zap is the underlying logger, exposed for zap specific needs.
	Zap *zap.Logger

	// tracingEnabled makes the *WithContext methods add trace and span ids.
	tracingEnabled bool
}

// NewLoggerClient builds the JSON logger described by cfg: ISO8601
// timestamps, capitalized levels, caller and stack traces, and pid plus
// service as initial fields, written to stderr. It terminates the process
// when zap cannot be built; use New to handle that error.
//
// Example:
//
//	log := logger.NewLoggerClient(logger.Config{
//	    Level:       logger.Debug,
//	    ServiceName: "inventory",
//	})
//	log.Debug("statement prepared", nil, map[string]interface{}{"sql": text})
func NewLoggerClient(cfg Config) *Logger {
	l, err := New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	return l
}

// New is NewLoggerClient returning the build error.
func New(cfg Config) (*Logger, error) {
	z, err := zapConfig(cfg).Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return NewFromZap(z, cfg.EnableTracing), nil
}

func zapConfig(cfg Config) zap.Config {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeCaller = zapcore.FullCallerEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         "json",
		EncoderConfig:    enc,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}
}

var levels = map[string]zapcore.Level{
	Debug:   zapcore.DebugLevel,
	Info:    zapcore.InfoLevel,
	Warning: zapcore.WarnLevel,
	Error:   zapcore.ErrorLevel,
}

// parseLevel maps a Config.Level to zap, defaulting to info.
func parseLevel(level string) zapcore.Level {
	if l, ok := levels[level]; ok {
		return l
	}
	return zapcore.InfoLevel
}

// NewFromZap wraps an existing zap logger, e.g. one built by zaptest in
// tests.
func NewFromZap(z *zap.Logger, tracingEnabled bool) *Logger {
	return &Logger{Zap: z, tracingEnabled: tracingEnabled}
}
