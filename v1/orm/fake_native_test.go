package orm

import (
	"context"
	"errors"
	"sync"

	"github.com/Aleph-Alpha/odm/v1/observability"
)

// fakeNative is a scripted native client. Statements look up their rows,
// affected counts and failures by statement text.
type fakeNative struct {
	rows         map[string][][]any
	affected     map[string]int64
	executeErr   map[string]error
	prepareErr   map[string]error
	directiveErr map[string]error

	prepared   map[string]int
	directives []string
	stmts      []*fakeStatement
	closed     bool
}

func newFakeNative() *fakeNative {
	return &fakeNative{
		rows:         make(map[string][][]any),
		affected:     make(map[string]int64),
		executeErr:   make(map[string]error),
		prepareErr:   make(map[string]error),
		directiveErr: make(map[string]error),
		prepared:     make(map[string]int),
	}
}

func (f *fakeNative) NewStatement() (NativeStatement, error) {
	s := &fakeStatement{native: f}
	f.stmts = append(f.stmts, s)
	return s, nil
}

func (f *fakeNative) Exec(_ context.Context, text string) error {
	f.directives = append(f.directives, text)
	return f.directiveErr[text]
}

func (f *fakeNative) Ping(context.Context) error { return nil }

func (f *fakeNative) Close() error {
	f.closed = true
	return nil
}

// statement returns the prepared handle for text.
func (f *fakeNative) statement(text string) *fakeStatement {
	for _, s := range f.stmts {
		if s.text == text && !s.closed {
			return s
		}
	}
	return nil
}

type fakeStatement struct {
	native *fakeNative
	text   string

	params  []Bind
	results []Bind

	paramBinds   int
	resultBinds  int
	executions   [][]any
	fetchColumns int
	frees        int

	rows   [][]any
	cur    []any
	pos    int
	open   bool
	closed bool
}

func (s *fakeStatement) Prepare(_ context.Context, text string) error {
	if err := s.native.prepareErr[text]; err != nil {
		return err
	}
	s.text = text
	s.native.prepared[text]++
	return nil
}

func (s *fakeStatement) Reset() error {
	s.open = false
	return nil
}

func (s *fakeStatement) BindParams(binds []Bind) error {
	s.params = binds
	s.paramBinds++
	return nil
}

func (s *fakeStatement) BindResults(binds []Bind) error {
	s.results = binds
	s.resultBinds++
	return nil
}

func (s *fakeStatement) Execute(context.Context) error {
	values := make([]any, len(s.params))
	for i := range s.params {
		v, err := s.params[i].Value()
		if err != nil {
			return err
		}
		values[i] = v
	}
	s.executions = append(s.executions, values)

	if err := s.native.executeErr[s.text]; err != nil {
		return err
	}
	if len(s.results) > 0 {
		s.rows = s.native.rows[s.text]
		s.pos = 0
		s.open = true
	}
	return nil
}

func (s *fakeStatement) Fetch() (FetchResult, error) {
	if !s.open {
		return FetchNoData, errors.New("no result set")
	}
	if s.pos >= len(s.rows) {
		return FetchNoData, nil
	}
	s.cur = s.rows[s.pos]
	s.pos++

	r := FetchSuccess
	for i := range s.results {
		if err := s.results[i].Store(s.cur[i]); err != nil {
			return FetchNoData, err
		}
		if *s.results[i].Truncated {
			r = FetchTruncated
		}
	}
	return r, nil
}

func (s *fakeStatement) FetchColumn(b *Bind, col, _ int) error {
	s.fetchColumns++
	return b.Store(s.cur[col])
}

func (s *fakeStatement) FreeResult() error {
	s.open = false
	s.frees++
	return nil
}

func (s *fakeStatement) AffectedRows() (int64, error) {
	if n, ok := s.native.affected[s.text]; ok {
		return n, nil
	}
	return 1, nil
}

func (s *fakeStatement) Close() error {
	s.closed = true
	return nil
}

// TestObserver records every reported operation.
type TestObserver struct {
	mu         sync.Mutex
	operations []observability.OperationContext
}

func (t *TestObserver) ObserveOperation(ctx observability.OperationContext) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = append(t.operations, ctx)
}

func (t *TestObserver) GetOperations() []observability.OperationContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]observability.OperationContext, len(t.operations))
	copy(out, t.operations)
	return out
}

// personTraits is a hand-written stand-in for generated object traits.
var personTraits = &ObjectTraits{
	Name: "person",
	Columns: []ColumnSpec{
		{Name: "id", Type: TypeLongLong},
		{Name: "name", Type: TypeString, Capacity: 8},
		{Name: "age", Type: TypeShort},
	},
	IDColumns:        []int{0},
	PersistStatement: "INSERT INTO person (id, name, age) VALUES (?, ?, ?)",
	FindStatement:    "SELECT person.id, person.name, person.age FROM person WHERE person.id=?",
	UpdateStatement:  "UPDATE person SET name=?, age=? WHERE id=?",
	EraseStatement:   "DELETE FROM person WHERE id=?",
	QueryStatement:   "SELECT person.id, person.name, person.age FROM person",
	Containers:       []*ContainerTraits{nicknameTraits},
}

var nicknameTraits = &ContainerTraits{
	Name:               "nicknames",
	IDColumnCount:      1,
	DataColumns:        []ColumnSpec{{Name: "value", Type: TypeString, Capacity: 4}},
	InsertOneStatement: "INSERT INTO person_nicknames (object_id, value) VALUES (?, ?)",
	SelectAllStatement: "SELECT value FROM person_nicknames WHERE object_id=?",
	DeleteAllStatement: "DELETE FROM person_nicknames WHERE object_id=?",
}

type Person struct{}

func (Person) ObjectTraits() *ObjectTraits { return personTraits }

var personView = &ViewTraits{
	Name: "person_count",
	Columns: []ColumnSpec{
		{Name: "count", Type: TypeULongLong},
	},
	QueryStatement: "SELECT COUNT(*) FROM person",
}

type PersonCount struct{}

func (PersonCount) ViewTraits() *ViewTraits { return personView }

var (
	personID   = NewQueryColumn[int64]("person", "id", TypeLongLong)
	personName = NewQueryColumn[string]("person", "name", TypeString)
	personAge  = NewQueryColumn[int16]("person", "age", TypeShort)
)
