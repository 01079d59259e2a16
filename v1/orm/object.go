package orm

import (
	"context"
	"errors"
	"fmt"
)

// ObjectTraits describes a persistent type to the runtime: its row shape
// and the statement texts generated for it. Generated code declares one
// ObjectTraits value per type; its address identifies the type in the
// statement cache.
type ObjectTraits struct {
	Name string

	// Columns lists every persistent column in statement order.
	Columns []ColumnSpec

	// IDColumns holds the positions of the id columns within Columns.
	IDColumns []int

	// PersistStatement inserts every column of Columns.
	PersistStatement string

	// FindStatement selects every column of Columns by id.
	FindStatement string

	// UpdateStatement sets every non-id column, in Columns order, and takes
	// the id columns as its trailing parameters.
	UpdateStatement string

	// EraseStatement deletes by id.
	EraseStatement string

	// QueryStatement selects every column of Columns; a query clause is
	// appended to it.
	QueryStatement string

	Containers []*ContainerTraits
}

func (t *ObjectTraits) validate() error {
	if len(t.IDColumns) == 0 {
		return fmt.Errorf("%w: object %q has no id columns", ErrInvalidParameter, t.Name)
	}
	for _, i := range t.IDColumns {
		if i < 0 || i >= len(t.Columns) {
			return fmt.Errorf("%w: object %q id column %d out of range", ErrInvalidParameter, t.Name, i)
		}
	}
	return nil
}

func (t *ObjectTraits) dataColumns() []int {
	isID := make(map[int]bool, len(t.IDColumns))
	for _, i := range t.IDColumns {
		isID[i] = true
	}
	cols := make([]int, 0, len(t.Columns)-len(t.IDColumns))
	for i := range t.Columns {
		if !isID[i] {
			cols = append(cols, i)
		}
	}
	return cols
}

// ObjectStatements is the statement set of one persistent type on one
// connection: its images, their bindings and the lazily prepared persist,
// find, update and erase statements.
//
// The data image holds a whole row. The id image holds the id used by find,
// update, erase and the containers of the object.
type ObjectStatements struct {
	conn   *Connection
	traits *ObjectTraits

	image   *Image
	idImage *Image

	data   *imageBinding
	id     *imageBinding
	update *imageBinding

	persistStmt *InsertStatement
	findStmt    *SelectStatement
	updateStmt  *UpdateStatement
	eraseStmt   *DeleteStatement
	queryStmt   *SelectStatement

	containers map[string]*ContainerStatements
}

// NewObjectStatements builds the images and bindings of traits. No statement
// is prepared until it is first used.
func NewObjectStatements(conn *Connection, traits *ObjectTraits) (*ObjectStatements, error) {
	if err := traits.validate(); err != nil {
		return nil, err
	}

	image, err := NewImage(traits.Columns)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", traits.Name, err)
	}

	idSpecs := make([]ColumnSpec, len(traits.IDColumns))
	for i, col := range traits.IDColumns {
		idSpecs[i] = traits.Columns[col]
	}
	idImage, err := NewImage(idSpecs)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", traits.Name, err)
	}

	return &ObjectStatements{
		conn:       conn,
		traits:     traits,
		image:      image,
		idImage:    idImage,
		data:       newImageBinding(bindingPart{image: image}),
		id:         newImageBinding(bindingPart{image: idImage}),
		update:     newImageBinding(bindingPart{image: image, columns: traits.dataColumns()}),
		containers: make(map[string]*ContainerStatements),
	}, nil
}

// Traits returns the descriptor the set was built from.
func (s *ObjectStatements) Traits() *ObjectTraits { return s.traits }

// Connection returns the connection the set belongs to.
func (s *ObjectStatements) Connection() *Connection { return s.conn }

// Image returns the data image.
func (s *ObjectStatements) Image() *Image { return s.image }

// IDImage returns the id image.
func (s *ObjectStatements) IDImage() *Image { return s.idImage }

// IDBinding returns the binding of the id image, resynced with the image.
func (s *ObjectStatements) IDBinding() *Binding {
	s.id.sync()
	return s.id.binding
}

// DataBinding returns the binding of the whole data image, resynced.
func (s *ObjectStatements) DataBinding() *Binding {
	s.data.sync()
	return s.data.binding
}

// UpdateBinding returns the binding of the non-id data columns, resynced.
func (s *ObjectStatements) UpdateBinding() *Binding {
	s.update.sync()
	return s.update.binding
}

// SetID stores the id values, in IDColumns order, into the id image.
func (s *ObjectStatements) SetID(values ...any) error {
	if len(values) != s.idImage.Len() {
		return fmt.Errorf("%w: object %q takes %d id values, got %d", ErrInvalidParameter, s.traits.Name, s.idImage.Len(), len(values))
	}
	for i, v := range values {
		if err := s.idImage.Set(i, v); err != nil {
			return err
		}
	}
	s.id.sync()
	return nil
}

// CopyID copies the id columns of the data image into the id image, e.g.
// after persisting an object whose id the caller set on the data image.
func (s *ObjectStatements) CopyID() error {
	for i, col := range s.traits.IDColumns {
		v, err := s.image.Value(col)
		if err != nil {
			return err
		}
		if err := s.idImage.Set(i, v); err != nil {
			return err
		}
	}
	s.id.sync()
	return nil
}

// PersistStatement returns the insert statement, preparing it on first use.
func (s *ObjectStatements) PersistStatement(ctx context.Context) (*InsertStatement, error) {
	if s.persistStmt == nil {
		st, err := NewInsertStatement(ctx, s.conn, s.traits.PersistStatement, s.data.binding)
		if err != nil {
			return nil, err
		}
		s.persistStmt = st
	}
	return s.persistStmt, nil
}

// FindStatement returns the select-by-id statement, preparing it on first use.
func (s *ObjectStatements) FindStatement(ctx context.Context) (*SelectStatement, error) {
	if s.findStmt == nil {
		st, err := NewSelectStatement(ctx, s.conn, s.traits.FindStatement, s.id.binding, s.data.binding)
		if err != nil {
			return nil, err
		}
		s.findStmt = st
	}
	return s.findStmt, nil
}

// UpdateStatement returns the update-by-id statement, preparing it on first use.
func (s *ObjectStatements) UpdateStatement(ctx context.Context) (*UpdateStatement, error) {
	if s.updateStmt == nil {
		st, err := NewUpdateStatement(ctx, s.conn, s.traits.UpdateStatement, s.update.binding, s.id.binding)
		if err != nil {
			return nil, err
		}
		s.updateStmt = st
	}
	return s.updateStmt, nil
}

// EraseStatement returns the delete-by-id statement, preparing it on first use.
func (s *ObjectStatements) EraseStatement(ctx context.Context) (*DeleteStatement, error) {
	if s.eraseStmt == nil {
		st, err := NewDeleteStatement(ctx, s.conn, s.traits.EraseStatement, s.id.binding)
		if err != nil {
			return nil, err
		}
		s.eraseStmt = st
	}
	return s.eraseStmt, nil
}

// Persist inserts the row held by the data image.
func (s *ObjectStatements) Persist(ctx context.Context) error {
	st, err := s.PersistStatement(ctx)
	if err != nil {
		return err
	}
	s.data.sync()
	return st.Execute(ctx)
}

// Find loads the row whose id is in the id image into the data image. It
// reports false when no such row exists.
func (s *ObjectStatements) Find(ctx context.Context) (bool, error) {
	st, err := s.FindStatement(ctx)
	if err != nil {
		return false, err
	}
	s.id.sync()
	s.data.sync()

	r, err := st.Execute(ctx)
	if err != nil {
		return false, err
	}
	if r == FetchNoData {
		return false, nil
	}
	if r == FetchTruncated {
		s.image.GrowTruncated()
		s.data.sync()
		if err := st.Refetch(); err != nil {
			return false, errors.Join(err, st.FreeResult())
		}
	}
	return true, st.FreeResult()
}

// Update writes the data image to the row identified by the id image.
func (s *ObjectStatements) Update(ctx context.Context) error {
	st, err := s.UpdateStatement(ctx)
	if err != nil {
		return err
	}
	s.update.sync()
	s.id.sync()
	return st.Execute(ctx)
}

// Erase deletes the row identified by the id image.
func (s *ObjectStatements) Erase(ctx context.Context) error {
	st, err := s.EraseStatement(ctx)
	if err != nil {
		return err
	}
	s.id.sync()
	return st.Execute(ctx)
}

// Query executes QueryStatement restricted by q and returns an iterator
// over the matching rows, loaded into the data image.
//
// Constant true queries reuse one cached statement; every other query is
// prepared for the returned Result and closed with it.
func (s *ObjectStatements) Query(ctx context.Context, q *Query) (*Result, error) {
	if q == nil {
		q = NewQuery()
	}
	if err := q.InitParameters(); err != nil {
		return nil, err
	}
	q.Optimize()

	if q.ConstTrue() {
		if s.queryStmt == nil {
			st, err := NewSelectStatement(ctx, s.conn, s.traits.QueryStatement, nil, s.data.binding)
			if err != nil {
				return nil, err
			}
			s.queryStmt = st
		}
		return newResult(ctx, s.queryStmt, s.image, s.data, false)
	}

	params, err := q.ParametersBinding()
	if err != nil {
		return nil, err
	}
	text := s.traits.QueryStatement + " " + q.Clause(s.conn.dialect)
	st, err := NewSelectStatement(ctx, s.conn, text, params, s.data.binding)
	if err != nil {
		return nil, err
	}
	return newResult(ctx, st, s.image, s.data, true)
}

// Container returns the statement set of the named container, with the
// object's id binding installed as its parent id. The container resyncs the
// id binding with the id image before every statement it runs.
func (s *ObjectStatements) Container(name string) (*ContainerStatements, error) {
	s.id.sync()
	if cs, ok := s.containers[name]; ok {
		return cs, nil
	}
	for _, ct := range s.traits.Containers {
		if ct.Name != name {
			continue
		}
		cs, err := NewContainerStatements(s.conn, ct)
		if err != nil {
			return nil, err
		}
		if err := cs.SetIDBinding(s.id.binding); err != nil {
			return nil, err
		}
		cs.idSync = func() { s.id.sync() }
		s.containers[name] = cs
		return cs, nil
	}
	return nil, fmt.Errorf("%w: object %q has no container %q", ErrInvalidParameter, s.traits.Name, name)
}

// Close releases every prepared statement of the set and its containers.
func (s *ObjectStatements) Close() error {
	var errs []error
	if s.persistStmt != nil {
		errs = append(errs, s.persistStmt.Close())
	}
	if s.findStmt != nil {
		errs = append(errs, s.findStmt.Close())
	}
	if s.updateStmt != nil {
		errs = append(errs, s.updateStmt.Close())
	}
	if s.eraseStmt != nil {
		errs = append(errs, s.eraseStmt.Close())
	}
	if s.queryStmt != nil {
		errs = append(errs, s.queryStmt.Close())
	}
	for _, cs := range s.containers {
		errs = append(errs, cs.Close())
	}
	return errors.Join(errs...)
}
