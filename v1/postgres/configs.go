package postgres

import "time"

// Driver names accepted by Connection.Driver.
const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"
)

// Config holds the connection settings of a PostgreSQL backend.
type Config struct {
	Connection        Connection
	ConnectionDetails ConnectionDetails
}

// Connection describes where and how to connect.
type Connection struct {
	Host     string `yaml:"host" envconfig:"POSTGRES_HOST"`
	Port     string `yaml:"port" envconfig:"POSTGRES_PORT"`
	User     string `yaml:"user" envconfig:"POSTGRES_USER"`
	Password string `yaml:"password" envconfig:"POSTGRES_PASSWORD"`
	DbName   string `yaml:"db_name" envconfig:"POSTGRES_DB_NAME"`

	// SSLMode defaults to "disable".
	SSLMode string `yaml:"ssl_mode" envconfig:"POSTGRES_SSL_MODE"`

	// Driver selects the database/sql driver: "pgx" (default) or
	// "postgres" for lib/pq.
	Driver string `yaml:"driver" envconfig:"POSTGRES_DRIVER"`
}

// ConnectionDetails tunes the pools.
type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"POSTGRES_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"POSTGRES_CONN_MAX_LIFETIME"`

	// MaxConnections bounds the orm connections checked out at once.
	// Zero means MaxOpenConns.
	MaxConnections int64 `yaml:"max_connections" envconfig:"POSTGRES_MAX_CONNECTIONS"`
}

const (
	defaultMaxOpenConns    = 50
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = time.Minute
)
