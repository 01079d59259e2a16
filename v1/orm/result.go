package orm

import (
	"context"
	"errors"
)

// Result iterates the rows of a query into an image.
//
// Example:
//
//	res, err := stmts.Query(ctx, person.Age.Greater(30))
//	if err != nil {
//	    return err
//	}
//	defer res.Close()
//	for res.Next() {
//	    name, _ := res.Image().String(1)
//	}
//	return res.Err()
type Result struct {
	stmt    *SelectStatement
	image   *Image
	binding *imageBinding
	owned   bool
	started bool
	done    bool
	err     error
}

func newResult(ctx context.Context, stmt *SelectStatement, image *Image, binding *imageBinding, owned bool) (*Result, error) {
	r := &Result{stmt: stmt, image: image, binding: binding, owned: owned}
	binding.sync()
	if err := stmt.Start(ctx); err != nil {
		if owned {
			_ = stmt.Close()
		}
		return nil, err
	}
	r.started = true
	return r, nil
}

// Next loads the next row into the image. Truncated columns are grown and
// fetched again before Next returns. It returns false at the end of the rows
// or on error.
func (r *Result) Next() bool {
	if r.done {
		return false
	}

	r.binding.sync()
	fr, err := r.stmt.Fetch()
	if err != nil {
		r.finish(err)
		return false
	}

	switch fr {
	case FetchNoData:
		r.finish(nil)
		return false
	case FetchTruncated:
		r.image.GrowTruncated()
		r.binding.sync()
		if err := r.stmt.Refetch(); err != nil {
			r.finish(err)
			return false
		}
	}
	return true
}

// Image returns the image holding the current row.
func (r *Result) Image() *Image {
	return r.image
}

// Err returns the error that stopped the iteration, if any.
func (r *Result) Err() error {
	return r.err
}

// Close frees the pending result. Statements prepared for this result alone
// are closed too.
func (r *Result) Close() error {
	if !r.done {
		r.finish(nil)
	}
	if r.owned {
		return r.stmt.Close()
	}
	return nil
}

func (r *Result) finish(err error) {
	r.done = true
	if ferr := r.stmt.FreeResult(); ferr != nil {
		err = errors.Join(err, ferr)
	}
	if r.err == nil {
		r.err = err
	}
}
