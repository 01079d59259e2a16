package mariadb

import "time"

// Config holds the connection settings of a MariaDB/MySQL backend.
type Config struct {
	Connection        Connection
	ConnectionDetails ConnectionDetails
}

// Connection describes where and how to connect.
type Connection struct {
	Host     string `yaml:"host" envconfig:"MARIADB_HOST"`
	Port     string `yaml:"port" envconfig:"MARIADB_PORT"`
	User     string `yaml:"user" envconfig:"MARIADB_USER"`
	Password string `yaml:"password" envconfig:"MARIADB_PASSWORD"`
	DbName   string `yaml:"db_name" envconfig:"MARIADB_DB_NAME"`

	// Charset defaults to utf8mb4.
	Charset string `yaml:"charset" envconfig:"MARIADB_CHARSET"`

	// ParseTime makes the driver return DATETIME columns as time.Time.
	ParseTime bool `yaml:"parse_time" envconfig:"MARIADB_PARSE_TIME" default:"true"`

	// Loc is the location DATETIME values are interpreted in. Defaults to UTC.
	Loc string `yaml:"loc" envconfig:"MARIADB_LOC"`

	// TLS is the driver tls parameter: "true", "skip-verify", "preferred" or
	// the name of a registered config.
	TLS string `yaml:"tls" envconfig:"MARIADB_TLS"`

	// Timeout, ReadTimeout and WriteTimeout are Go durations such as "5s".
	Timeout      string `yaml:"timeout" envconfig:"MARIADB_TIMEOUT"`
	ReadTimeout  string `yaml:"read_timeout" envconfig:"MARIADB_READ_TIMEOUT"`
	WriteTimeout string `yaml:"write_timeout" envconfig:"MARIADB_WRITE_TIMEOUT"`
}

// ConnectionDetails tunes the pools.
type ConnectionDetails struct {
	// MaxOpenConns bounds the database/sql pool. Defaults to 50.
	MaxOpenConns int `yaml:"max_open_conns" envconfig:"MARIADB_MAX_OPEN_CONNS"`

	// MaxIdleConns defaults to 25.
	MaxIdleConns int `yaml:"max_idle_conns" envconfig:"MARIADB_MAX_IDLE_CONNS"`

	// ConnMaxLifetime defaults to one minute.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"MARIADB_CONN_MAX_LIFETIME"`

	// MaxConnections bounds the orm connections checked out at once.
	// Zero means MaxOpenConns.
	MaxConnections int64 `yaml:"max_connections" envconfig:"MARIADB_MAX_CONNECTIONS"`
}

const (
	defaultMaxOpenConns    = 50
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = time.Minute
	defaultCharset         = "utf8mb4"
)
