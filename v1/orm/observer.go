package orm

import (
	"time"

	"github.com/Aleph-Alpha/odm/v1/observability"
)

// Logger is the logging interface the runtime writes to. v1/logger satisfies
// it.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// observeOperation notifies the observer about an operation if one is configured.
//
// Notes:
//   - resource: the statement text or the transaction directive
//   - size: affected or fetched rows
func (c *Connection) observeOperation(operation, resource string, duration time.Duration, err error, size int64, metadata map[string]interface{}) {
	if c == nil || c.observer == nil {
		return
	}

	c.observer.ObserveOperation(observability.OperationContext{
		Component: "orm",
		Operation: operation,
		Resource:  resource,
		Duration:  duration,
		Error:     err,
		Size:      size,
		Metadata:  metadata,
	})
}

func (c *Connection) logDebug(msg string, fields map[string]interface{}) {
	if c != nil && c.logger != nil {
		c.logger.Debug(msg, nil, fields)
	}
}

func (c *Connection) logError(msg string, err error, fields map[string]interface{}) {
	if c != nil && c.logger != nil {
		c.logger.Error(msg, err, fields)
	}
}
