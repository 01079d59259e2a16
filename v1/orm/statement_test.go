package orm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errNative = errors.New("native failure")

// mockStatement wires a mock native statement prepared with text.
func mockStatement(t *testing.T, text string, opts Options) (*Connection, *MockNativeStatement) {
	t.Helper()
	ctrl := gomock.NewController(t)
	native := NewMockNativeConnection(ctrl)
	st := NewMockNativeStatement(ctrl)
	native.EXPECT().NewStatement().Return(st, nil)
	st.EXPECT().Prepare(gomock.Any(), text).Return(nil)
	return NewConnection(native, opts), st
}

func TestInsertStatementRebindsOnlyOnVersionChange(t *testing.T) {
	ctx := context.Background()
	conn, st := mockStatement(t, "INSERT", Options{})

	param := NewBinding(1)
	param.Version = 1
	s, err := NewInsertStatement(ctx, conn, "INSERT", param)
	require.NoError(t, err)

	st.EXPECT().Reset().Return(nil).Times(3)
	st.EXPECT().BindParams(gomock.Any()).Return(nil).Times(2)
	st.EXPECT().Execute(gomock.Any()).Return(nil).Times(3)

	require.NoError(t, s.Execute(ctx))
	require.NoError(t, s.Execute(ctx))

	param.Version++
	require.NoError(t, s.Execute(ctx))
}

func TestInsertStatementFreshBindingIsNeverStale(t *testing.T) {
	ctx := context.Background()
	conn, st := mockStatement(t, "INSERT", Options{})

	s, err := NewInsertStatement(ctx, conn, "INSERT", NewBinding(0))
	require.NoError(t, err)

	st.EXPECT().Reset().Return(nil)
	st.EXPECT().Execute(gomock.Any()).Return(nil)

	require.NoError(t, s.Execute(ctx))
}

func TestInsertStatementDuplicateKey(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	dialect := NewMockDialect(ctrl)
	conn, st := mockStatement(t, "INSERT", Options{Dialect: dialect})

	s, err := NewInsertStatement(ctx, conn, "INSERT", nil)
	require.NoError(t, err)

	st.EXPECT().Reset().Return(nil)
	st.EXPECT().Execute(gomock.Any()).Return(errNative)
	dialect.EXPECT().IsDuplicateKey(errNative).Return(true)

	err = s.Execute(ctx)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.ErrorIs(t, err, errNative)
	assert.NotErrorIs(t, err, ErrDatabase)
}

func TestInsertStatementNativeFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	dialect := NewMockDialect(ctrl)
	conn, st := mockStatement(t, "INSERT", Options{Dialect: dialect})

	s, err := NewInsertStatement(ctx, conn, "INSERT", nil)
	require.NoError(t, err)

	st.EXPECT().Reset().Return(nil)
	st.EXPECT().Execute(gomock.Any()).Return(errNative)
	dialect.EXPECT().IsDuplicateKey(errNative).Return(false)
	dialect.EXPECT().ErrorCode(errNative).Return(1205)

	err = s.Execute(ctx)
	require.ErrorIs(t, err, ErrDatabase)
	assert.NotErrorIs(t, err, ErrDuplicateKey)

	var dbErr *DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, 1205, dbErr.Code)
	assert.Equal(t, "execute", dbErr.Op)
}

func TestPreparationFailureClosesHandle(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	native := NewMockNativeConnection(ctrl)
	st := NewMockNativeStatement(ctrl)
	native.EXPECT().NewStatement().Return(st, nil)
	st.EXPECT().Prepare(gomock.Any(), "SELECT broken").Return(errNative)
	st.EXPECT().Close().Return(nil)

	conn := NewConnection(native, Options{})
	s, err := NewSelectStatement(ctx, conn, "SELECT broken", nil, NewBinding(1))
	assert.Nil(t, s)
	require.ErrorIs(t, err, ErrPreparationFailure)

	var prepErr *PreparationError
	require.ErrorAs(t, err, &prepErr)
	assert.Equal(t, "SELECT broken", prepErr.Text)
	assert.ErrorIs(t, err, errNative)
}

func TestStatementOnClosedConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	native := NewMockNativeConnection(ctrl)
	native.EXPECT().Close().Return(nil)

	conn := NewConnection(native, Options{})
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err := NewInsertStatement(context.Background(), conn, "INSERT", nil)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestUpdateStatementAffectedRows(t *testing.T) {
	tests := []struct {
		name       string
		affected   int64
		affectErr  error
		executeErr error
		wantErr    error
	}{
		{name: "one row", affected: 1},
		{name: "several rows", affected: 3},
		{name: "no row", affected: 0, wantErr: ErrObjectNotFound},
		{name: "count unavailable", affected: -1, wantErr: ErrDatabase},
		{name: "count failure", affectErr: errNative, wantErr: ErrDatabase},
		{name: "execute failure", executeErr: errNative, wantErr: ErrDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			conn, st := mockStatement(t, "UPDATE", Options{})

			data, id := NewBinding(1), NewBinding(1)
			data.Version, id.Version = 1, 1
			s, err := NewUpdateStatement(ctx, conn, "UPDATE", data, id)
			require.NoError(t, err)

			st.EXPECT().Reset().Return(nil)
			st.EXPECT().BindParams(gomock.Any()).Return(nil)
			st.EXPECT().Execute(gomock.Any()).Return(tt.executeErr)
			if tt.executeErr == nil {
				st.EXPECT().AffectedRows().Return(tt.affected, tt.affectErr)
			}

			err = s.Execute(ctx)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr == ErrDatabase {
				assert.NotErrorIs(t, err, ErrObjectNotFound)
			}
		})
	}
}

func TestUpdateStatementBindsDataThenID(t *testing.T) {
	ctx := context.Background()
	conn, st := mockStatement(t, "UPDATE", Options{})

	data := &Binding{Bind: []Bind{{Type: WireString}, {Type: WireShort}}, Version: 1}
	id := &Binding{Bind: []Bind{{Type: WireLongLong}}, Version: 1}
	s, err := NewUpdateStatement(ctx, conn, "UPDATE", data, id)
	require.NoError(t, err)

	var bound [][]WireType
	st.EXPECT().Reset().Return(nil).Times(3)
	st.EXPECT().BindParams(gomock.Any()).DoAndReturn(func(binds []Bind) error {
		types := make([]WireType, len(binds))
		for i := range binds {
			types[i] = binds[i].Type
		}
		bound = append(bound, types)
		return nil
	}).Times(2)
	st.EXPECT().Execute(gomock.Any()).Return(nil).Times(3)
	st.EXPECT().AffectedRows().Return(int64(1), nil).Times(3)

	require.NoError(t, s.Execute(ctx))
	require.NoError(t, s.Execute(ctx))

	id.Bind[0].Type = WireLong
	id.Version++
	require.NoError(t, s.Execute(ctx))

	require.Len(t, bound, 2)
	assert.Equal(t, []WireType{WireString, WireShort, WireLongLong}, bound[0])
	assert.Equal(t, []WireType{WireString, WireShort, WireLong}, bound[1])
}

func TestDeleteStatement(t *testing.T) {
	ctx := context.Background()
	conn, st := mockStatement(t, "DELETE", Options{})

	s, err := NewDeleteStatement(ctx, conn, "DELETE", nil)
	require.NoError(t, err)

	st.EXPECT().Reset().Return(nil).Times(3)
	st.EXPECT().Execute(gomock.Any()).Return(nil).Times(3)
	gomock.InOrder(
		st.EXPECT().AffectedRows().Return(int64(0), nil),
		st.EXPECT().AffectedRows().Return(int64(1), nil),
		st.EXPECT().AffectedRows().Return(int64(0), nil),
	)

	assert.ErrorIs(t, s.Execute(ctx), ErrObjectNotFound)
	assert.NoError(t, s.Execute(ctx))

	n, err := s.ExecuteCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStatementCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, st := mockStatement(t, "DELETE", Options{})

	s, err := NewDeleteStatement(ctx, conn, "DELETE", nil)
	require.NoError(t, err)

	st.EXPECT().Close().Return(nil)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Execute(ctx), ErrConnectionClosed)
}

func newTruncationFixture(t *testing.T) (*fakeNative, *Connection, *Image, *imageBinding) {
	t.Helper()
	native := newFakeNative()
	conn := NewConnection(native, Options{})
	img, err := NewImage([]ColumnSpec{
		{Name: "id", Type: TypeLongLong},
		{Name: "name", Type: TypeString, Capacity: 4},
	})
	require.NoError(t, err)
	return native, conn, img, newImageBinding(bindingPart{image: img})
}

func TestSelectStatementTruncationAndRefetch(t *testing.T) {
	ctx := context.Background()
	native, conn, img, ib := newTruncationFixture(t)
	native.rows["SELECT"] = [][]any{{int64(7), "abcdefgh"}}

	s, err := NewSelectStatement(ctx, conn, "SELECT", nil, ib.binding)
	require.NoError(t, err)

	r, err := s.Execute(ctx)
	require.NoError(t, err)
	require.Equal(t, FetchTruncated, r)
	assert.True(t, img.Columns[1].Truncated)
	assert.Equal(t, 8, img.Columns[1].Length)
	assert.Len(t, img.Columns[1].Buffer, 4)

	version := ib.binding.Version
	require.True(t, img.GrowTruncated())
	require.True(t, ib.sync())
	assert.Greater(t, ib.binding.Version, version)

	require.NoError(t, s.Refetch())
	name, err := img.String(1)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", name)
	assert.False(t, img.Columns[1].Truncated)

	fake := native.statement("SELECT")
	assert.Equal(t, 1, fake.fetchColumns)
	assert.Equal(t, 2, fake.resultBinds)

	// Nothing is truncated any more, so a second refetch fetches nothing.
	require.NoError(t, s.Refetch())
	assert.Equal(t, 1, fake.fetchColumns)

	id, err := img.Int64(0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	require.NoError(t, s.FreeResult())
	assert.False(t, s.Pending())
}

func TestSelectStatementNoDataFreesResult(t *testing.T) {
	ctx := context.Background()
	native, conn, _, ib := newTruncationFixture(t)
	native.rows["SELECT"] = [][]any{{int64(1), "a"}}

	s, err := NewSelectStatement(ctx, conn, "SELECT", nil, ib.binding)
	require.NoError(t, err)

	r, err := s.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, FetchSuccess, r)
	assert.True(t, s.Pending())
	assert.Same(t, s, conn.active)

	r, err = s.Fetch()
	require.NoError(t, err)
	assert.Equal(t, FetchNoData, r)
	assert.False(t, s.Pending())
	assert.Nil(t, conn.active)

	_, err = s.Fetch()
	assert.ErrorIs(t, err, ErrDatabase)
}

func TestSelectStatementClaimsConnection(t *testing.T) {
	ctx := context.Background()
	native, conn, _, ib := newTruncationFixture(t)
	native.rows["SELECT a"] = [][]any{{int64(1), "a"}, {int64(2), "b"}}
	native.rows["SELECT b"] = [][]any{{int64(3), "c"}}

	a, err := NewSelectStatement(ctx, conn, "SELECT a", nil, ib.binding)
	require.NoError(t, err)
	b, err := NewSelectStatement(ctx, conn, "SELECT b", nil, ib.binding)
	require.NoError(t, err)

	require.NoError(t, a.Start(ctx))
	require.True(t, a.Pending())

	require.NoError(t, b.Start(ctx))
	assert.False(t, a.Pending())
	assert.True(t, b.Pending())
	assert.Same(t, b, conn.active)
	assert.Equal(t, 1, native.statement("SELECT a").frees)

	require.NoError(t, conn.Clear())
	assert.False(t, b.Pending())
}

func TestStatementsReportToObserver(t *testing.T) {
	ctx := context.Background()
	native := newFakeNative()
	obs := &TestObserver{}
	conn := NewConnection(native, Options{Observer: obs})
	native.affected["DELETE"] = 4

	s, err := NewDeleteStatement(ctx, conn, "DELETE", nil)
	require.NoError(t, err)
	n, err := s.ExecuteCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	ops := obs.GetOperations()
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(ops))
	}
	if ops[0].Component != "orm" {
		t.Fatalf("expected component orm, got %q", ops[0].Component)
	}
	if ops[0].Operation != "delete" {
		t.Fatalf("expected operation delete, got %q", ops[0].Operation)
	}
	if ops[0].Resource != "DELETE" {
		t.Fatalf("expected resource DELETE, got %q", ops[0].Resource)
	}
	if ops[0].Size != 4 {
		t.Fatalf("expected size 4, got %d", ops[0].Size)
	}
}

func TestObserveOperationNilObserverNoPanic(t *testing.T) {
	c := &Connection{}
	c.observeOperation("insert", "INSERT", 0, nil, 1, nil)

	var nilConn *Connection
	nilConn.observeOperation("insert", "INSERT", 0, nil, 1, nil)
}
