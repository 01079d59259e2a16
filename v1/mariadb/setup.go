package mariadb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
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

// MariaDB connects the orm runtime to a MariaDB or MySQL server.
//
// It opens the server through gorm and go-sql-driver/mysql, and serves
// orm Connections from the resulting *sql.DB through an *orm.Database
// using the MariaDB Dialect. MonitorConnection and RetryConnection keep the
// connection alive: when a health check fails, a new pool is opened and
// swapped in, and the old one is closed.
//
// MariaDB is safe for concurrent use.
type MariaDB struct {
	cfg      Config
	logger   Logger
	observer observability.Observer
	reporter PoolReporter

	mu     *sync.RWMutex
	client *gorm.DB
	db     *orm.Database

	connect         func(Config) (*gorm.DB, error)
	monitorInterval time.Duration
	retryDelay      time.Duration

	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// Option customizes a MariaDB.
type Option func(*MariaDB)

// WithLogger logs backend and runtime events to l.
func WithLogger(l Logger) Option {
	return func(m *MariaDB) { m.logger = l }
}

// WithObserver reports every statement execution and transaction directive
// to o.
func WithObserver(o observability.Observer) Option {
	return func(m *MariaDB) { m.observer = o }
}

// WithPoolReporter reports the pool state after every health check.
func WithPoolReporter(r PoolReporter) Option {
	return func(m *MariaDB) { m.reporter = r }
}

// NewMariaDB opens the server described by cfg.
//
// Example:
//
//	db, err := mariadb.NewMariaDB(mariadb.Config{
//	    Connection: mariadb.Connection{
//	        Host: "localhost", Port: "3306",
//	        User: "app", Password: "secret", DbName: "inventory",
//	        ParseTime: true,
//	    },
//	}, mariadb.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer db.GracefulShutdown()
//
//	err = db.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
//	    stmts, err := orm.FindObject[Person](tx.Connection().Cache())
//	    if err != nil {
//	        return err
//	    }
//	    return stmts.Persist(ctx)
//	})
func NewMariaDB(cfg Config, opts ...Option) (*MariaDB, error) {
	return newMariaDB(cfg, connectToMariaDB, opts...)
}

func newMariaDB(cfg Config, connect func(Config) (*gorm.DB, error), opts ...Option) (*MariaDB, error) {
	m := &MariaDB{
		cfg:             cfg,
		mu:              &sync.RWMutex{},
		connect:         connect,
		monitorInterval: defaultMonitorInterval,
		retryDelay:      defaultRetryDelay,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
	for _, opt := range opts {
		opt(m)
	}

	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("error in connecting to MariaDB: %w", err)
	}
	db, err := m.newDatabase(conn)
	if err != nil {
		return nil, err
	}
	m.client = conn
	m.db = db
	m.logInfo("connected to MariaDB/MySQL database", map[string]interface{}{
		"host": cfg.Connection.Host,
		"db":   cfg.Connection.DbName,
	})
	return m, nil
}

func (m *MariaDB) newDatabase(conn *gorm.DB) (*orm.Database, error) {
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get MariaDB/MySQL database instance: %w", err)
	}

	opts := orm.Options{
		Dialect:        Dialect{},
		Observer:       m.observer,
		MaxConnections: m.cfg.ConnectionDetails.MaxConnections,
	}
	if m.logger != nil {
		opts.Logger = m.logger
	}
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = int64(maxOpenConns(m.cfg))
	}
	return orm.NewDatabase(sqlDB, opts), nil
}

// BuildDSN renders the go-sql-driver/mysql DSN for cfg.
//
// clientFoundRows is always on: an UPDATE that matches a row reports it as
// affected even when no value changed, which the runtime relies on to tell a
// missing object from an unchanged one.
func BuildDSN(cfg Config) (string, error) {
	c := cfg.Connection

	dsn := mysql.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Password
	dsn.Net = "tcp"
	dsn.Addr = c.Host + ":" + c.Port
	dsn.DBName = c.DbName
	dsn.ParseTime = c.ParseTime
	dsn.ClientFoundRows = true
	dsn.TLSConfig = c.TLS

	charset := c.Charset
	if charset == "" {
		charset = defaultCharset
	}
	dsn.Params = map[string]string{"charset": charset}

	if c.Loc != "" {
		loc, err := time.LoadLocation(c.Loc)
		if err != nil {
			return "", fmt.Errorf("invalid loc %q: %w", c.Loc, err)
		}
		dsn.Loc = loc
	}

	for _, t := range []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"timeout", c.Timeout, &dsn.Timeout},
		{"readTimeout", c.ReadTimeout, &dsn.ReadTimeout},
		{"writeTimeout", c.WriteTimeout, &dsn.WriteTimeout},
	} {
		if t.value == "" {
			continue
		}
		d, err := time.ParseDuration(t.value)
		if err != nil {
			return "", fmt.Errorf("invalid %s %q: %w", t.name, t.value, err)
		}
		*t.dst = d
	}

	return dsn.FormatDSN(), nil
}

func maxOpenConns(cfg Config) int {
	if cfg.ConnectionDetails.MaxOpenConns > 0 {
		return cfg.ConnectionDetails.MaxOpenConns
	}
	return defaultMaxOpenConns
}

// connectToMariaDB opens gorm over go-sql-driver/mysql and tunes the pool.
func connectToMariaDB(cfg Config) (*gorm.DB, error) {
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}

	database, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MariaDB/MySQL database: %w", err)
	}
	if err := configurePool(database, cfg); err != nil {
		return nil, err
	}
	return database, nil
}

func configurePool(database *gorm.DB, cfg Config) error {
	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("failed to get MariaDB/MySQL database instance: %w", err)
	}

	maxIdle := cfg.ConnectionDetails.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}
	lifetime := cfg.ConnectionDetails.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}

	sqlDB.SetMaxOpenConns(maxOpenConns(cfg))
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}

// Database returns the current orm pool. Callers should not keep it across
// operations: a reconnect replaces it.
func (m *MariaDB) Database() *orm.Database {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// DB returns the current gorm handle.
func (m *MariaDB) DB() *gorm.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// Dialect returns the MariaDB dialect.
func (m *MariaDB) Dialect() orm.Dialect {
	return Dialect{}
}

// RetryConnection waits for failure signals from MonitorConnection and
// reopens the server until it succeeds. It returns on shutdown or when ctx
// is done.
func (m *MariaDB) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-m.shutdownSignal:
			m.logInfo("stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case cause, ok := <-m.retryChanSignal:
			if !ok {
				return
			}
			m.logError("MariaDB connection lost", cause, nil)
		innerLoop:
			for {
				select {
				case <-m.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
					if err := m.reconnect(); err != nil {
						m.logError("MariaDB reconnection failed", err, nil)
						select {
						case <-time.After(m.retryDelay):
						case <-m.shutdownSignal:
							return
						case <-ctx.Done():
							return
						}
						continue innerLoop
					}
					m.logInfo("successfully reconnected to MariaDB/MySQL database", nil)
					continue outerLoop
				}
			}
		}
	}
}

// reconnect opens a new pool, swaps it in and closes the old one.
// Connections of the old pool that are still checked out are closed when
// they are released.
func (m *MariaDB) reconnect() error {
	conn, err := m.connect(m.cfg)
	if err != nil {
		return err
	}
	db, err := m.newDatabase(conn)
	if err != nil {
		return err
	}

	m.mu.Lock()
	oldClient, oldDB := m.client, m.db
	m.client, m.db = conn, db
	m.mu.Unlock()

	return closePool(oldClient, oldDB)
}

func closePool(client *gorm.DB, db *orm.Database) error {
	var errs []error
	if db != nil {
		errs = append(errs, db.Close())
	}
	if client != nil {
		if sqlDB, err := client.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

// MonitorConnection pings the server every monitor interval and signals
// RetryConnection when the ping fails. It returns on shutdown or when ctx is
// done, closing the retry channel.
func (m *MariaDB) MonitorConnection(ctx context.Context) {
	defer m.closeRetryChanOnce.Do(func() {
		close(m.retryChanSignal)
	})

	ticker := time.NewTicker(m.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.shutdownSignal:
			m.logInfo("stopping MonitorConnection loop due to shutdown signal", nil)
			return
		case <-ticker.C:
			if err := m.healthCheck(); err != nil {
				select {
				case m.retryChanSignal <- err:
				default:
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// healthCheck pings the current pool and reports its state.
func (m *MariaDB) healthCheck() error {
	db := m.Database()
	if db == nil {
		return fmt.Errorf("database client is not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}

	if m.reporter != nil {
		stats := db.DB().Stats()
		m.reporter.SetConnections(Dialect{}.Name(), stats.InUse, stats.Idle)
	}
	return nil
}

// GracefulShutdown stops the monitor and retry loops and closes the pools.
func (m *MariaDB) GracefulShutdown() error {
	m.closeShutdownOnce.Do(func() {
		close(m.shutdownSignal)
	})

	m.mu.Lock()
	client, db := m.client, m.db
	m.client, m.db = nil, nil
	m.mu.Unlock()

	return closePool(client, db)
}

func (m *MariaDB) logInfo(msg string, fields map[string]interface{}) {
	if m.logger != nil {
		m.logger.Info(msg, nil, fields)
	}
}

func (m *MariaDB) logError(msg string, err error, fields map[string]interface{}) {
	if m.logger != nil {
		m.logger.Error(msg, err, fields)
	}
}
