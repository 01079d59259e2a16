package database

import (
	"context"
	"errors"

	"github.com/Aleph-Alpha/odm/v1/orm"
)

// Each helper below runs inside Client.Transaction, joining the transaction
// carried by ctx when there is one.

// Persist inserts a new T. fill writes the object into the data image.
func Persist[T orm.Persistent](ctx context.Context, c *Client, fill func(img *orm.Image) error) error {
	return c.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
		stmts, err := orm.FindObject[T](tx.Connection().Cache())
		if err != nil {
			return err
		}
		if err := fill(stmts.Image()); err != nil {
			return err
		}
		return stmts.Persist(ctx)
	})
}

// Load finds the T identified by id and hands its image to read. It
// reports false, without calling read, when no such object exists.
func Load[T orm.Persistent](ctx context.Context, c *Client, id []any, read func(img *orm.Image) error) (bool, error) {
	var found bool
	err := c.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
		stmts, err := orm.FindObject[T](tx.Connection().Cache())
		if err != nil {
			return err
		}
		if err := stmts.SetID(id...); err != nil {
			return err
		}
		found, err = stmts.Find(ctx)
		if err != nil || !found {
			return err
		}
		return read(stmts.Image())
	})
	return found, err
}

// Update overwrites a stored T. fill writes the whole object, including
// its id columns, into the data image. A missing object yields
// orm.ErrObjectNotFound.
func Update[T orm.Persistent](ctx context.Context, c *Client, fill func(img *orm.Image) error) error {
	return c.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
		stmts, err := orm.FindObject[T](tx.Connection().Cache())
		if err != nil {
			return err
		}
		if err := fill(stmts.Image()); err != nil {
			return err
		}
		if err := stmts.CopyID(); err != nil {
			return err
		}
		return stmts.Update(ctx)
	})
}

// Erase deletes the T identified by id. A missing object yields
// orm.ErrObjectNotFound.
func Erase[T orm.Persistent](ctx context.Context, c *Client, id ...any) error {
	return c.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
		stmts, err := orm.FindObject[T](tx.Connection().Cache())
		if err != nil {
			return err
		}
		if err := stmts.SetID(id...); err != nil {
			return err
		}
		return stmts.Erase(ctx)
	})
}

// Query calls each with the image of every T matching q. A nil q matches
// all objects. Returning an error from each stops the iteration.
func Query[T orm.Persistent](ctx context.Context, c *Client, q *orm.Query, each func(img *orm.Image) error) error {
	return c.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
		stmts, err := orm.FindObject[T](tx.Connection().Cache())
		if err != nil {
			return err
		}
		res, err := stmts.Query(ctx, q)
		if err != nil {
			return err
		}
		for res.Next() {
			if err := each(res.Image()); err != nil {
				return errors.Join(err, res.Close())
			}
		}
		return errors.Join(res.Err(), res.Close())
	})
}

// QueryView calls each with the image of every row of view V matching q.
func QueryView[V orm.Viewable](ctx context.Context, c *Client, q *orm.Query, each func(img *orm.Image) error) error {
	return c.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
		stmts, err := orm.FindView[V](tx.Connection().Cache())
		if err != nil {
			return err
		}
		res, err := stmts.Query(ctx, q)
		if err != nil {
			return err
		}
		for res.Next() {
			if err := each(res.Image()); err != nil {
				return errors.Join(err, res.Close())
			}
		}
		return errors.Join(res.Err(), res.Close())
	})
}
