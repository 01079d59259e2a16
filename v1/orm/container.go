package orm

import (
	"context"
	"errors"
	"fmt"
)

// ContainerTraits describes a collection-valued member of a persistent type,
// stored in its own table keyed by the owner's id.
type ContainerTraits struct {
	Name string

	// IDColumnCount is the number of owner id columns leading every row.
	IDColumnCount int

	// CondColumns are condition columns following the owner id, such as a
	// map key. Usually empty.
	CondColumns []ColumnSpec

	// DataColumns are the element columns, without the owner id.
	DataColumns []ColumnSpec

	// InsertOneStatement takes the owner id followed by DataColumns.
	InsertOneStatement string

	// SelectAllStatement takes the condition and returns DataColumns.
	SelectAllStatement string

	// DeleteAllStatement takes the condition.
	DeleteAllStatement string
}

// ContainerStatements is the statement set of one container on one
// connection.
//
// The owner id never belongs to the container: the owning object installs
// its id binding with SetIDBinding and the container copies those
// descriptors into its condition and data bindings. Because the id binding
// can change after installation, the container remembers the id binding
// version each binding was built from and rebuilds it when they differ.
type ContainerStatements struct {
	conn   *Connection
	traits *ContainerTraits

	idBinding *Binding
	// idSync resyncs idBinding with its owner's image, when the owner
	// installed one.
	idSync func()

	condImage            *Image
	condImageVersion     uint64
	condIDBindingVersion uint64
	condBinding          *Binding

	dataImage            *Image
	dataImageVersion     uint64
	dataIDBindingVersion uint64
	dataBinding          *Binding

	// selectBinding shares dataBinding's descriptors past the owner id.
	selectBinding *Binding

	insertOne *InsertStatement
	selectAll *SelectStatement
	deleteAll *DeleteStatement
}

// NewContainerStatements allocates the images and bindings of traits.
func NewContainerStatements(conn *Connection, traits *ContainerTraits) (*ContainerStatements, error) {
	condImage, err := NewImage(traits.CondColumns)
	if err != nil {
		return nil, fmt.Errorf("container %q: %w", traits.Name, err)
	}
	dataImage, err := NewImage(traits.DataColumns)
	if err != nil {
		return nil, fmt.Errorf("container %q: %w", traits.Name, err)
	}

	n := traits.IDColumnCount
	data := NewBinding(n + dataImage.Len())
	return &ContainerStatements{
		conn:          conn,
		traits:        traits,
		condImage:     condImage,
		condBinding:   NewBinding(n + condImage.Len()),
		dataImage:     dataImage,
		dataBinding:   data,
		selectBinding: &Binding{Bind: data.Bind[n:]},
	}, nil
}

// Traits returns the descriptor the set was built from.
func (s *ContainerStatements) Traits() *ContainerTraits { return s.traits }

// SetIDBinding installs the owner's id binding. The container keeps a
// reference to it and never modifies it.
func (s *ContainerStatements) SetIDBinding(b *Binding) error {
	if b.Len() != s.traits.IDColumnCount {
		return fmt.Errorf("%w: container %q expects %d id columns, got %d", ErrInvalidParameter, s.traits.Name, s.traits.IDColumnCount, b.Len())
	}
	s.idBinding = b
	s.idSync = nil
	return nil
}

// IDBinding returns the installed owner id binding.
func (s *ContainerStatements) IDBinding() *Binding {
	if s.idSync != nil {
		s.idSync()
	}
	return s.idBinding
}

// CondImage returns the image of the condition columns after the owner id.
func (s *ContainerStatements) CondImage() *Image { return s.condImage }

// DataImage returns the element image.
func (s *ContainerStatements) DataImage() *Image { return s.dataImage }

// CondBinding returns the owner id plus condition binding, resynced.
func (s *ContainerStatements) CondBinding() (*Binding, error) {
	if err := s.syncCond(); err != nil {
		return nil, err
	}
	return s.condBinding, nil
}

// DataBinding returns the owner id plus element binding used by inserts,
// resynced.
func (s *ContainerStatements) DataBinding() (*Binding, error) {
	if err := s.syncData(); err != nil {
		return nil, err
	}
	return s.dataBinding, nil
}

// SelectBinding returns the element binding without the owner id, used for
// select results, resynced.
func (s *ContainerStatements) SelectBinding() (*Binding, error) {
	if err := s.syncData(); err != nil {
		return nil, err
	}
	return s.selectBinding, nil
}

func (s *ContainerStatements) requireID() error {
	if s.idBinding == nil {
		return fmt.Errorf("%w: container %q has no id binding", ErrInvalidParameter, s.traits.Name)
	}
	if s.idSync != nil {
		s.idSync()
	}
	return nil
}

func (s *ContainerStatements) syncCond() error {
	if err := s.requireID(); err != nil {
		return err
	}
	if s.condBinding.Version != 0 &&
		s.condImageVersion == s.condImage.Version &&
		s.condIDBindingVersion == s.idBinding.Version {
		return nil
	}

	n := copy(s.condBinding.Bind, s.idBinding.Bind)
	for i := range s.condImage.Columns {
		bindColumn(&s.condBinding.Bind[n+i], &s.condImage.Columns[i])
	}
	s.condImageVersion = s.condImage.Version
	s.condIDBindingVersion = s.idBinding.Version
	s.condBinding.Version++
	return nil
}

func (s *ContainerStatements) syncData() error {
	if err := s.requireID(); err != nil {
		return err
	}
	imageChanged := s.dataBinding.Version == 0 || s.dataImageVersion != s.dataImage.Version
	if !imageChanged && s.dataIDBindingVersion == s.idBinding.Version {
		return nil
	}

	n := copy(s.dataBinding.Bind, s.idBinding.Bind)
	for i := range s.dataImage.Columns {
		bindColumn(&s.dataBinding.Bind[n+i], &s.dataImage.Columns[i])
	}
	s.dataImageVersion = s.dataImage.Version
	s.dataIDBindingVersion = s.idBinding.Version
	s.dataBinding.Version++
	if imageChanged {
		s.selectBinding.Version++
	}
	return nil
}

// InsertOneStatement returns the insert statement, preparing it on first use.
func (s *ContainerStatements) InsertOneStatement(ctx context.Context) (*InsertStatement, error) {
	if s.insertOne == nil {
		st, err := NewInsertStatement(ctx, s.conn, s.traits.InsertOneStatement, s.dataBinding)
		if err != nil {
			return nil, err
		}
		s.insertOne = st
	}
	return s.insertOne, nil
}

// SelectAllStatement returns the select statement, preparing it on first use.
func (s *ContainerStatements) SelectAllStatement(ctx context.Context) (*SelectStatement, error) {
	if s.selectAll == nil {
		st, err := NewSelectStatement(ctx, s.conn, s.traits.SelectAllStatement, s.condBinding, s.selectBinding)
		if err != nil {
			return nil, err
		}
		s.selectAll = st
	}
	return s.selectAll, nil
}

// DeleteAllStatement returns the delete statement, preparing it on first use.
func (s *ContainerStatements) DeleteAllStatement(ctx context.Context) (*DeleteStatement, error) {
	if s.deleteAll == nil {
		st, err := NewDeleteStatement(ctx, s.conn, s.traits.DeleteAllStatement, s.condBinding)
		if err != nil {
			return nil, err
		}
		s.deleteAll = st
	}
	return s.deleteAll, nil
}

// InsertOne inserts the element in the data image for the current owner id.
func (s *ContainerStatements) InsertOne(ctx context.Context) error {
	if err := s.syncData(); err != nil {
		return err
	}
	st, err := s.InsertOneStatement(ctx)
	if err != nil {
		return err
	}
	return st.Execute(ctx)
}

// LoadAll loads every element of the current owner, calling fn with the data
// image once per row. An error from fn stops the iteration and is returned.
func (s *ContainerStatements) LoadAll(ctx context.Context, fn func(*Image) error) error {
	if err := s.syncCond(); err != nil {
		return err
	}
	if err := s.syncData(); err != nil {
		return err
	}
	st, err := s.SelectAllStatement(ctx)
	if err != nil {
		return err
	}
	if err := st.Start(ctx); err != nil {
		return err
	}

	for {
		r, err := st.Fetch()
		if err != nil {
			return errors.Join(err, st.FreeResult())
		}
		if r == FetchNoData {
			return nil
		}
		if r == FetchTruncated {
			s.dataImage.GrowTruncated()
			if err := s.syncData(); err != nil {
				return errors.Join(err, st.FreeResult())
			}
			if err := st.Refetch(); err != nil {
				return errors.Join(err, st.FreeResult())
			}
		}
		if err := fn(s.dataImage); err != nil {
			return errors.Join(err, st.FreeResult())
		}
	}
}

// DeleteAll deletes every element of the current owner and returns how many
// rows were removed. An empty container is not an error.
func (s *ContainerStatements) DeleteAll(ctx context.Context) (int64, error) {
	if err := s.syncCond(); err != nil {
		return 0, err
	}
	st, err := s.DeleteAllStatement(ctx)
	if err != nil {
		return 0, err
	}
	return st.ExecuteCount(ctx)
}

// Close releases the prepared statements.
func (s *ContainerStatements) Close() error {
	var errs []error
	if s.insertOne != nil {
		errs = append(errs, s.insertOne.Close())
	}
	if s.selectAll != nil {
		errs = append(errs, s.selectAll.Close())
	}
	if s.deleteAll != nil {
		errs = append(errs, s.deleteAll.Close())
	}
	return errors.Join(errs...)
}
