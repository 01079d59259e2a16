package orm

import (
	"context"
	"fmt"
)

// ViewTraits describes a read-only projection: its row shape and the select
// the query clause is appended to.
type ViewTraits struct {
	Name           string
	Columns        []ColumnSpec
	QueryStatement string
}

// ViewStatements is the statement set of one view on one connection.
type ViewStatements struct {
	conn   *Connection
	traits *ViewTraits

	image   *Image
	binding *imageBinding

	queryStmt *SelectStatement
}

// NewViewStatements allocates the image and binding of traits.
func NewViewStatements(conn *Connection, traits *ViewTraits) (*ViewStatements, error) {
	image, err := NewImage(traits.Columns)
	if err != nil {
		return nil, fmt.Errorf("view %q: %w", traits.Name, err)
	}
	return &ViewStatements{
		conn:    conn,
		traits:  traits,
		image:   image,
		binding: newImageBinding(bindingPart{image: image}),
	}, nil
}

// Traits returns the descriptor the set was built from.
func (s *ViewStatements) Traits() *ViewTraits { return s.traits }

// Image returns the view image.
func (s *ViewStatements) Image() *Image { return s.image }

// ImageBinding returns the binding of the view image, resynced.
func (s *ViewStatements) ImageBinding() *Binding {
	s.binding.sync()
	return s.binding.binding
}

// QueryStatement returns the unrestricted query statement, preparing it on
// first use.
func (s *ViewStatements) QueryStatement(ctx context.Context) (*SelectStatement, error) {
	if s.queryStmt == nil {
		st, err := NewSelectStatement(ctx, s.conn, s.traits.QueryStatement, nil, s.binding.binding)
		if err != nil {
			return nil, err
		}
		s.queryStmt = st
	}
	return s.queryStmt, nil
}

// Query executes the view restricted by q and iterates its rows in the view
// image. A nil or constant true q uses the cached unrestricted statement.
func (s *ViewStatements) Query(ctx context.Context, q *Query) (*Result, error) {
	if q == nil {
		q = NewQuery()
	}
	if err := q.InitParameters(); err != nil {
		return nil, err
	}
	q.Optimize()

	if q.ConstTrue() {
		st, err := s.QueryStatement(ctx)
		if err != nil {
			return nil, err
		}
		return newResult(ctx, st, s.image, s.binding, false)
	}

	params, err := q.ParametersBinding()
	if err != nil {
		return nil, err
	}
	st, err := NewSelectStatement(ctx, s.conn, s.traits.QueryStatement+" "+q.Clause(s.conn.dialect), params, s.binding.binding)
	if err != nil {
		return nil, err
	}
	return newResult(ctx, st, s.image, s.binding, true)
}

// Close releases the cached query statement.
func (s *ViewStatements) Close() error {
	if s.queryStmt == nil {
		return nil
	}
	return s.queryStmt.Close()
}
