package database_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/Aleph-Alpha/odm/v1/database"
	"github.com/Aleph-Alpha/odm/v1/mariadb"
	"github.com/Aleph-Alpha/odm/v1/orm"
	"github.com/Aleph-Alpha/odm/v1/postgres"
)

var accountTraits = &orm.ObjectTraits{
	Name: "account",
	Columns: []orm.ColumnSpec{
		{Name: "id", Type: orm.TypeLongLong},
		{Name: "owner", Type: orm.TypeString, Capacity: 32},
		{Name: "balance", Type: orm.TypeLongLong},
	},
	IDColumns:        []int{0},
	PersistStatement: "INSERT INTO account (id, owner, balance) VALUES (?, ?, ?)",
	FindStatement:    "SELECT account.id, account.owner, account.balance FROM account WHERE account.id=?",
	UpdateStatement:  "UPDATE account SET owner=?, balance=? WHERE id=?",
	EraseStatement:   "DELETE FROM account WHERE id=?",
	QueryStatement:   "SELECT account.id, account.owner, account.balance FROM account",
}

// Account is what generated code for the account table looks like.
type Account struct{}

func (Account) ObjectTraits() *orm.ObjectTraits { return accountTraits }

func ExamplePostgresConfig() {
	cfg := database.PostgresConfig(postgres.Config{
		Connection: postgres.Connection{
			Host:   "localhost",
			Port:   "5432",
			User:   "myuser",
			DbName: "mydb",
		},
	})

	fmt.Println(cfg.Type)
	// Output: postgres
}

// Moving money between two accounts in one transaction. A deadlock reruns
// the whole function.
func ExampleClient_Transaction() {
	transfer := func(ctx context.Context, c *database.Client, from, to, amount int64) error {
		return c.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
			stmts, err := orm.FindObject[Account](tx.Connection().Cache())
			if err != nil {
				return err
			}
			for _, step := range []struct{ id, delta int64 }{{from, -amount}, {to, amount}} {
				if err := stmts.SetID(step.id); err != nil {
					return err
				}
				found, err := stmts.Find(ctx)
				if err != nil {
					return err
				}
				if !found {
					return orm.ErrObjectNotFound
				}
				balance, err := stmts.Image().Int64(2)
				if err != nil {
					return err
				}
				if err := stmts.Image().Set(2, balance+step.delta); err != nil {
					return err
				}
				if err := stmts.Update(ctx); err != nil {
					return err
				}
			}
			return nil
		})
	}
	_ = transfer
}

func TestConfigHelpers(t *testing.T) {
	t.Run("PostgresConfig", func(t *testing.T) {
		cfg := database.PostgresConfig(postgres.Config{
			Connection: postgres.Connection{Host: "localhost", Port: "5432"},
		})
		if cfg.Type != database.TypePostgres {
			t.Errorf("expected type=postgres, got %s", cfg.Type)
		}
		if cfg.Postgres == nil || cfg.Postgres.Connection.Host != "localhost" {
			t.Errorf("expected Postgres config with host=localhost, got %+v", cfg.Postgres)
		}
		if cfg.MariaDB != nil {
			t.Error("expected MariaDB config to be nil")
		}
	})

	t.Run("MariaDBConfig", func(t *testing.T) {
		cfg := database.MariaDBConfig(mariadb.Config{
			Connection: mariadb.Connection{Host: "localhost", Port: "3306"},
		})
		if cfg.Type != database.TypeMariaDB {
			t.Errorf("expected type=mariadb, got %s", cfg.Type)
		}
		if cfg.MariaDB == nil || cfg.MariaDB.Connection.Port != "3306" {
			t.Errorf("expected MariaDB config with port=3306, got %+v", cfg.MariaDB)
		}
	})
}
