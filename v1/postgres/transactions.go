package postgres

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
//	err := pg.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
//	    stmts, err := orm.FindObject[Person](tx.Connection().Cache())
//	    if err != nil {
//	        return err
//	    }
//	    return stmts.Persist(ctx)
//	})
func (p *Postgres) Transaction(ctx context.Context, fn func(ctx context.Context, tx *orm.Transaction) error) error {
	db := p.Database()
	if db == nil {
		return orm.ErrConnectionClosed
	}
	return db.Transaction(ctx, fn)
}

// Migrate executes schema statements through gorm in one transaction.
// PostgreSQL DDL is transactional: either every statement applies or none.
func (p *Postgres) Migrate(ctx context.Context, statements ...string) error {
	client := p.DB()
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
