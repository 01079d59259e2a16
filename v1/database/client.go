package database

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/odm/v1/mariadb"
	"github.com/Aleph-Alpha/odm/v1/observability"
	"github.com/Aleph-Alpha/odm/v1/orm"
	"github.com/Aleph-Alpha/odm/v1/postgres"
)

// Backend is a connected server. *mariadb.MariaDB and *postgres.Postgres
// implement it.
type Backend interface {
	Database() *orm.Database
	Dialect() orm.Dialect
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *orm.Transaction) error) error
	Migrate(ctx context.Context, statements ...string) error
	GracefulShutdown() error
}

var (
	_ Backend = (*mariadb.MariaDB)(nil)
	_ Backend = (*postgres.Postgres)(nil)
)

// Logger is the logging surface of the client and the backends.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Tracer opens spans around transactions. *tracer.Tracer implements it.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, trace.Span)
	RecordErrorOnSpan(span trace.Span, err error)
	SetAttributes(span trace.Span, attrs map[string]interface{})
}

// PoolReporter receives database/sql pool states. *metrics.Metrics
// implements it.
type PoolReporter interface {
	SetConnections(pool string, inUse, idle int)
}

// Dependencies are the optional collaborators handed to the backend.
type Dependencies struct {
	Logger   Logger
	Observer observability.Observer
	Reporter PoolReporter
}

// NewBackend connects the backend selected by cfg.Type.
func NewBackend(cfg Config, deps Dependencies) (Backend, error) {
	switch cfg.Type {
	case TypePostgres:
		if cfg.Postgres == nil {
			return nil, fmt.Errorf("postgres config is required when type=%s", TypePostgres)
		}
		var opts []postgres.Option
		if deps.Logger != nil {
			opts = append(opts, postgres.WithLogger(deps.Logger))
		}
		if deps.Observer != nil {
			opts = append(opts, postgres.WithObserver(deps.Observer))
		}
		if deps.Reporter != nil {
			opts = append(opts, postgres.WithPoolReporter(deps.Reporter))
		}
		return postgres.NewPostgres(*cfg.Postgres, opts...)

	case TypeMariaDB:
		if cfg.MariaDB == nil {
			return nil, fmt.Errorf("mariadb config is required when type=%s", TypeMariaDB)
		}
		var opts []mariadb.Option
		if deps.Logger != nil {
			opts = append(opts, mariadb.WithLogger(deps.Logger))
		}
		if deps.Observer != nil {
			opts = append(opts, mariadb.WithObserver(deps.Observer))
		}
		if deps.Reporter != nil {
			opts = append(opts, mariadb.WithPoolReporter(deps.Reporter))
		}
		return mariadb.NewMariaDB(*cfg.MariaDB, opts...)

	default:
		return nil, fmt.Errorf("unsupported database type: %q (must be %q or %q)", cfg.Type, TypePostgres, TypeMariaDB)
	}
}

// Client runs units of work against a Backend.
type Client struct {
	backend Backend
	tracer  Tracer
	logger  Logger
	retries int
}

// Option customizes a Client.
type Option func(*Client)

// WithTracer opens a span around every outermost transaction.
func WithTracer(t Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithLogger logs retried transactions.
func WithLogger(l Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTransactionRetries sets how often a retryable transaction is rerun.
func WithTransactionRetries(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retries = n
	}
}

// NewClient wraps backend.
func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{backend: backend, retries: DefaultTransactionRetries}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend returns the wrapped backend.
func (c *Client) Backend() Backend { return c.backend }

// Database returns the backend's current orm pool.
func (c *Client) Database() *orm.Database { return c.backend.Database() }

// Dialect returns the backend's dialect.
func (c *Client) Dialect() orm.Dialect { return c.backend.Dialect() }

// Migrate applies schema statements through the backend.
func (c *Client) Migrate(ctx context.Context, statements ...string) error {
	return c.backend.Migrate(ctx, statements...)
}

// Close shuts the backend down.
func (c *Client) Close() error { return c.backend.GracefulShutdown() }

// Transaction runs fn in a transaction.
//
// When ctx already carries an active transaction, fn joins it and its error
// is returned unchanged. Otherwise a new transaction is started, committed
// when fn returns nil and rolled back otherwise. A transaction that fails
// with an error the dialect classifies as retryable (deadlock, serialization
// failure, lost connection) is rerun, so fn must be safe to repeat.
func (c *Client) Transaction(ctx context.Context, fn func(ctx context.Context, tx *orm.Transaction) error) error {
	if tx, err := orm.CurrentTransaction(ctx); err == nil {
		return fn(ctx, tx)
	}

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.StartSpan(ctx, "database.transaction")
		defer span.End()
		c.tracer.SetAttributes(span, map[string]interface{}{
			"db.system": c.backend.Dialect().Name(),
		})

		attempts, err := c.run(ctx, fn)
		c.tracer.SetAttributes(span, map[string]interface{}{
			"db.transaction.attempts": attempts,
		})
		if err != nil {
			c.tracer.RecordErrorOnSpan(span, err)
		}
		return err
	}

	_, err := c.run(ctx, fn)
	return err
}

func (c *Client) run(ctx context.Context, fn func(ctx context.Context, tx *orm.Transaction) error) (int, error) {
	attempt := 0
	for {
		attempt++
		err := c.backend.Transaction(ctx, fn)
		if err == nil {
			return attempt, nil
		}
		if attempt > c.retries || !orm.IsRetryable(c.backend.Dialect(), err) {
			return attempt, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt, errors.Join(err, ctxErr)
		}
		if c.logger != nil {
			c.logger.Warn("retrying transaction", err, map[string]interface{}{
				"attempt": attempt,
				"dialect": c.backend.Dialect().Name(),
			})
		}
	}
}
