package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/odm/v1/observability"
	"github.com/Aleph-Alpha/odm/v1/orm"
)

// Logger is the logging surface of the backend. It is also handed to the
// orm runtime.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// PoolReporter receives the state of the database/sql pool after every
// health check. metrics.Metrics implements it.
type PoolReporter interface {
	SetConnections(pool string, inUse, idle int)
}

const (
	defaultMonitorInterval = 10 * time.Second
	defaultRetryDelay      = time.Second
	healthCheckTimeout     = 5 * time.Second
)

// pool is one opened server: the gorm handle and the orm pool over its
// *sql.DB. Both are swapped together on reconnect.
type pool struct {
	client *gorm.DB
	db     *orm.Database
}

// Postgres connects the orm runtime to a PostgreSQL server.
//
// Concurrency: the active pool is kept in an atomic pointer and swapped
// during reconnection without blocking readers.
type Postgres struct {
	cfg      Config
	logger   Logger
	observer observability.Observer
	reporter PoolReporter

	current atomic.Pointer[pool]

	connect         func(Config) (*gorm.DB, error)
	monitorInterval time.Duration
	retryDelay      time.Duration

	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// Option customizes a Postgres.
type Option func(*Postgres)

// WithLogger logs backend and runtime events to l.
func WithLogger(l Logger) Option {
	return func(p *Postgres) { p.logger = l }
}

// WithObserver reports every statement execution and transaction directive
// to o.
func WithObserver(o observability.Observer) Option {
	return func(p *Postgres) { p.observer = o }
}

// WithPoolReporter reports the pool state after every health check.
func WithPoolReporter(r PoolReporter) Option {
	return func(p *Postgres) { p.reporter = r }
}

// NewPostgres opens the server described by cfg.
//
// Example:
//
//	pg, err := postgres.NewPostgres(postgres.Config{
//	    Connection: postgres.Connection{
//	        Host: "localhost", Port: "5432",
//	        User: "app", Password: "secret", DbName: "inventory",
//	    },
//	}, postgres.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer pg.GracefulShutdown()
func NewPostgres(cfg Config, opts ...Option) (*Postgres, error) {
	return newPostgres(cfg, connectToPostgres, opts...)
}

func newPostgres(cfg Config, connect func(Config) (*gorm.DB, error), opts ...Option) (*Postgres, error) {
	p := &Postgres{
		cfg:             cfg,
		connect:         connect,
		monitorInterval: defaultMonitorInterval,
		retryDelay:      defaultRetryDelay,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
	for _, opt := range opts {
		opt(p)
	}

	pl, err := p.open()
	if err != nil {
		return nil, fmt.Errorf("error in connecting to postgres: %w", err)
	}
	p.current.Store(pl)
	p.logInfo("connected to PostgreSQL database", map[string]interface{}{
		"host": cfg.Connection.Host,
		"db":   cfg.Connection.DbName,
	})
	return p, nil
}

func (p *Postgres) open() (*pool, error) {
	conn, err := p.connect(p.cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgreSQL database instance: %w", err)
	}

	opts := orm.Options{
		Dialect:        Dialect{},
		Observer:       p.observer,
		MaxConnections: p.cfg.ConnectionDetails.MaxConnections,
	}
	if p.logger != nil {
		opts.Logger = p.logger
	}
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = int64(maxOpenConns(p.cfg))
	}
	return &pool{client: conn, db: orm.NewDatabase(sqlDB, opts)}, nil
}

// BuildDSN renders the key/value connection string for cfg. Values are
// quoted when they contain spaces, quotes or backslashes.
func BuildDSN(cfg Config) string {
	c := cfg.Connection
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	params := map[string]string{
		"host":     c.Host,
		"port":     c.Port,
		"user":     c.User,
		"password": c.Password,
		"dbname":   c.DbName,
		"sslmode":  sslMode,
	}
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+quoteValue(params[k]))
	}
	return strings.Join(parts, " ")
}

func quoteValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func maxOpenConns(cfg Config) int {
	if cfg.ConnectionDetails.MaxOpenConns > 0 {
		return cfg.ConnectionDetails.MaxOpenConns
	}
	return defaultMaxOpenConns
}

// connectToPostgres opens gorm over pgx, or lib/pq when configured, and
// tunes the pool.
func connectToPostgres(cfg Config) (*gorm.DB, error) {
	driverName := cfg.Connection.Driver
	if driverName == "" {
		driverName = DriverPgx
	}
	if driverName != DriverPgx && driverName != DriverPq {
		return nil, fmt.Errorf("unsupported postgres driver %q", driverName)
	}

	dialector := postgres.New(postgres.Config{
		DriverName: driverName,
		DSN:        BuildDSN(cfg),
	})
	database, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}
	if err := configurePool(database, cfg); err != nil {
		return nil, err
	}
	return database, nil
}

func configurePool(database *gorm.DB, cfg Config) error {
	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("failed to get PostgreSQL database instance: %w", err)
	}

	maxIdle := cfg.ConnectionDetails.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = defaultMaxIdleConns
	}
	maxLifetime := cfg.ConnectionDetails.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = defaultConnMaxLifetime
	}

	sqlDB.SetMaxOpenConns(maxOpenConns(cfg))
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(maxLifetime)
	return nil
}

// Database returns the current orm pool, or nil after shutdown. Callers
// should not keep it across operations: a reconnect replaces it.
func (p *Postgres) Database() *orm.Database {
	if pl := p.current.Load(); pl != nil {
		return pl.db
	}
	return nil
}

// DB returns the current gorm handle, or nil after shutdown.
func (p *Postgres) DB() *gorm.DB {
	if pl := p.current.Load(); pl != nil {
		return pl.client
	}
	return nil
}

// Dialect returns the PostgreSQL dialect.
func (p *Postgres) Dialect() orm.Dialect {
	return Dialect{}
}

// RetryConnection waits for failure signals from MonitorConnection and
// reopens the server until it succeeds. It returns on shutdown or when ctx
// is done.
func (p *Postgres) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-p.shutdownSignal:
			p.logInfo("stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case cause, ok := <-p.retryChanSignal:
			if !ok {
				return
			}
			p.logError("PostgreSQL connection lost", cause, nil)
		innerLoop:
			for {
				select {
				case <-p.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
					pl, err := p.open()
					if err != nil {
						p.logError("PostgreSQL reconnection failed", err, nil)
						select {
						case <-time.After(p.retryDelay):
						case <-p.shutdownSignal:
							return
						case <-ctx.Done():
							return
						}
						continue innerLoop
					}
					if old := p.current.Swap(pl); old != nil {
						if err := old.close(); err != nil {
							p.logError("failed to close replaced PostgreSQL pool", err, nil)
						}
					}
					p.logInfo("successfully reconnected to PostgreSQL database", nil)
					continue outerLoop
				}
			}
		}
	}
}

func (pl *pool) close() error {
	var errs []error
	errs = append(errs, pl.db.Close())
	if sqlDB, err := pl.client.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}

// MonitorConnection pings the server every monitor interval and signals
// RetryConnection when the ping fails. It returns on shutdown or when ctx is
// done, closing the retry channel.
func (p *Postgres) MonitorConnection(ctx context.Context) {
	defer p.closeRetryChanOnce.Do(func() {
		close(p.retryChanSignal)
	})

	ticker := time.NewTicker(p.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdownSignal:
			p.logInfo("stopping MonitorConnection loop due to shutdown signal", nil)
			return
		case <-ticker.C:
			if err := p.healthCheck(); err != nil {
				select {
				case p.retryChanSignal <- err:
				default:
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// healthCheck snapshots the current pool, pings it and reports its state.
func (p *Postgres) healthCheck() error {
	db := p.Database()
	if db == nil {
		return fmt.Errorf("database client is not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}

	if p.reporter != nil {
		stats := db.DB().Stats()
		p.reporter.SetConnections(Dialect{}.Name(), stats.InUse, stats.Idle)
	}
	return nil
}

// GracefulShutdown stops the monitor and retry loops and closes the pools.
func (p *Postgres) GracefulShutdown() error {
	p.closeShutdownOnce.Do(func() {
		close(p.shutdownSignal)
	})
	if pl := p.current.Swap(nil); pl != nil {
		return pl.close()
	}
	return nil
}

func (p *Postgres) logInfo(msg string, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, nil, fields)
	}
}

func (p *Postgres) logError(msg string, err error, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.Error(msg, err, fields)
	}
}
