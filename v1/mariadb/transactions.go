package mariadb

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/odm/v1/orm"
)

// Transaction runs fn in an orm transaction on a connection of the current
// pool. fn's context carries the transaction (orm.CurrentTransaction). It
// commits when fn returns nil and rolls back otherwise.
//
// Example:
//
//	err := db.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
//	    stmts, err := orm.FindObject[Person](tx.Connection().Cache())
//	    if err != nil {
//	        return err
//	    }
//	    if err := stmts.SetID(id); err != nil {
//	        return err
//	    }
//	    return stmts.Erase(ctx)
//	})
func (m *MariaDB) Transaction(ctx context.Context, fn func(ctx context.Context, tx *orm.Transaction) error) error {
	db := m.Database()
	if db == nil {
		return orm.ErrConnectionClosed
	}
	return db.Transaction(ctx, fn)
}

// Migrate executes schema statements, such as the CREATE TABLE statements
// of persistent classes, through gorm in one gorm transaction. MySQL commits
// DDL implicitly, so a failure leaves the statements before it applied.
func (m *MariaDB) Migrate(ctx context.Context, statements ...string) error {
	client := m.DB()
	if client == nil {
		return orm.ErrConnectionClosed
	}
	return client.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("schema statement %d: %w", i+1, orm.TranslateError(err))
			}
		}
		return nil
	})
}
