package logger

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *Logger built from a logger.Config and flushes it on
// stop.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(logger.Config{Level: logger.Info, ServiceName: "inventory"}),
//	    logger.FXModule,
//	    database.FXModule,
//	)
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle syncs the zap logger when the application stops.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// stderr cannot be synced on some platforms; losing that is fine.
			_ = client.Zap.Sync()
			return nil
		},
	})
}
