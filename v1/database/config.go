package database

import (
	"github.com/Aleph-Alpha/odm/v1/mariadb"
	"github.com/Aleph-Alpha/odm/v1/postgres"
)

// Backend types accepted by Config.Type.
const (
	TypePostgres = "postgres"
	TypeMariaDB  = "mariadb"
)

// DefaultTransactionRetries is the number of times Client.Transaction
// reruns a function whose transaction failed with a retryable error.
const DefaultTransactionRetries = 3

// Config selects and configures the backend. Use PostgresConfig or
// MariaDBConfig to build it.
type Config struct {
	// Type is TypePostgres or TypeMariaDB.
	Type string `yaml:"type" envconfig:"DATABASE_TYPE"`

	// Postgres is used when Type is TypePostgres.
	Postgres *postgres.Config `yaml:"postgres"`

	// MariaDB is used when Type is TypeMariaDB.
	MariaDB *mariadb.Config `yaml:"mariadb"`

	// TransactionRetries bounds reruns of retryable transactions. Zero
	// means DefaultTransactionRetries, a negative value disables retries.
	TransactionRetries int `yaml:"transaction_retries" envconfig:"DATABASE_TRANSACTION_RETRIES"`
}

func (c Config) retries() int {
	switch {
	case c.TransactionRetries < 0:
		return 0
	case c.TransactionRetries == 0:
		return DefaultTransactionRetries
	}
	return c.TransactionRetries
}

// PostgresConfig creates a Config for PostgreSQL.
//
// Example:
//
//	fx.Provide(func() database.Config {
//	    return database.PostgresConfig(postgres.Config{
//	        Connection: postgres.Connection{
//	            Host: "localhost",
//	            Port: "5432",
//	            // ...
//	        },
//	    })
//	})
func PostgresConfig(cfg postgres.Config) Config {
	return Config{
		Type:     TypePostgres,
		Postgres: &cfg,
	}
}

// MariaDBConfig creates a Config for MariaDB/MySQL.
//
// Example:
//
//	fx.Provide(func() database.Config {
//	    return database.MariaDBConfig(mariadb.Config{
//	        Connection: mariadb.Connection{
//	            Host: "localhost",
//	            Port: "3306",
//	            // ...
//	        },
//	    })
//	})
func MariaDBConfig(cfg mariadb.Config) Config {
	return Config{
		Type:    TypeMariaDB,
		MariaDB: &cfg,
	}
}
