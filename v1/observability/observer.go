// Package observability defines the hook through which components report the
// operations they perform. Metrics and tracing backends implement Observer;
// components call it after every operation with an OperationContext.
package observability

import "time"

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "orm" or "mariadb".
	Component string

	// Operation is the action, e.g. "insert", "select" or "commit".
	Operation string

	// Resource is the primary target, e.g. the object or table name.
	Resource string

	// SubResource narrows the target, e.g. a container name.
	SubResource string

	Duration time.Duration

	// Error is nil on success.
	Error error

	// Size is an operation specific count such as affected rows.
	Size int64

	Metadata map[string]interface{}
}

// Observer receives operation reports. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

func (f ObserverFunc) ObserveOperation(ctx OperationContext) { f(ctx) }

// Multi fans a report out to several observers. Nil entries are skipped.
func Multi(observers ...Observer) Observer {
	return multiObserver(observers)
}

type multiObserver []Observer

func (m multiObserver) ObserveOperation(ctx OperationContext) {
	for _, o := range m {
		if o != nil {
			o.ObserveOperation(ctx)
		}
	}
}
