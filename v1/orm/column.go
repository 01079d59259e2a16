package orm

// QueryColumn is a typed column of a generated object or view, used to build
// query conditions. Comparisons only accept values of the column's Go type,
// and column to column comparisons only accept columns of the same type.
type QueryColumn[T any] struct {
	table      string
	column     string
	conversion string
	codec      ParameterCodec
	err        error
}

// NewQueryColumn declares table.column with the given database type.
func NewQueryColumn[T any](table, column string, id TypeID) QueryColumn[T] {
	codec, err := CodecFor(id, nil)
	return QueryColumn[T]{table: table, column: column, codec: codec, err: err}
}

// NewEnumQueryColumn declares an enumerated column.
func NewEnumQueryColumn[T any](table, column string, enum EnumTraits) QueryColumn[T] {
	codec, err := CodecFor(TypeEnum, enum)
	return QueryColumn[T]{table: table, column: column, codec: codec, err: err}
}

// WithConversion returns the column with a conversion expression applied to
// its parameters, for example "CAST((?) AS DATE)". The parameter placeholder
// replaces "(?)".
func (c QueryColumn[T]) WithConversion(expr string) QueryColumn[T] {
	c.conversion = expr
	return c
}

func (c QueryColumn[T]) Table() string      { return c.table }
func (c QueryColumn[T]) Column() string     { return c.column }
func (c QueryColumn[T]) Conversion() string { return c.conversion }

// Query returns a query holding just the column reference, for building
// suffixes such as ORDER BY.
func (c QueryColumn[T]) Query() *Query {
	return ColumnQuery(c.table, c.column)
}

func (c QueryColumn[T]) compare(op string, a Arg[T]) *Query {
	q := c.Query().AppendNative(op)
	if c.err != nil {
		return q.fail(c.err)
	}
	p, err := a.param(c.codec)
	if err != nil {
		return q.fail(err)
	}
	return q.AppendParam(p, c.conversion)
}

// IsNull returns "table.column IS NULL".
func (c QueryColumn[T]) IsNull() *Query {
	return c.Query().AppendNative("IS NULL")
}

// IsNotNull returns "table.column IS NOT NULL".
func (c QueryColumn[T]) IsNotNull() *Query {
	return c.Query().AppendNative("IS NOT NULL")
}

func (c QueryColumn[T]) Equal(v T) *Query           { return c.compare("=", Val(v)) }
func (c QueryColumn[T]) Unequal(v T) *Query         { return c.compare("!=", Val(v)) }
func (c QueryColumn[T]) Less(v T) *Query            { return c.compare("<", Val(v)) }
func (c QueryColumn[T]) Greater(v T) *Query         { return c.compare(">", Val(v)) }
func (c QueryColumn[T]) LessEqual(v T) *Query       { return c.compare("<=", Val(v)) }
func (c QueryColumn[T]) GreaterEqual(v T) *Query    { return c.compare(">=", Val(v)) }
func (c QueryColumn[T]) EqualArg(a Arg[T]) *Query   { return c.compare("=", a) }
func (c QueryColumn[T]) UnequalArg(a Arg[T]) *Query { return c.compare("!=", a) }
func (c QueryColumn[T]) LessArg(a Arg[T]) *Query    { return c.compare("<", a) }
func (c QueryColumn[T]) GreaterArg(a Arg[T]) *Query { return c.compare(">", a) }
func (c QueryColumn[T]) LessEqualArg(a Arg[T]) *Query {
	return c.compare("<=", a)
}
func (c QueryColumn[T]) GreaterEqualArg(a Arg[T]) *Query {
	return c.compare(">=", a)
}

// In returns "table.column IN(...)" over the given values. Without values
// the result is the constant false query.
func (c QueryColumn[T]) In(vs ...T) *Query {
	return c.InRange(vs)
}

// InRange is In over a slice.
func (c QueryColumn[T]) InRange(vs []T) *Query {
	if len(vs) == 0 {
		return False()
	}
	q := c.Query().AppendNative("IN(")
	if c.err != nil {
		return q.fail(c.err)
	}
	for i, v := range vs {
		if i > 0 {
			q.AppendNative(",")
		}
		p, err := NewValueParam(c.codec, v)
		if err != nil {
			return q.fail(err)
		}
		q.AppendParam(p, c.conversion)
	}
	return q.AppendNative(")")
}

func compareColumns[T any](a QueryColumn[T], op string, b QueryColumn[T]) *Query {
	return a.Query().AppendNative(op).AppendColumn(b.table, b.column)
}

// ColumnsEqual returns "a=b" for two columns of the same type.
func ColumnsEqual[T any](a, b QueryColumn[T]) *Query { return compareColumns(a, "=", b) }

// ColumnsUnequal returns "a!=b".
func ColumnsUnequal[T any](a, b QueryColumn[T]) *Query { return compareColumns(a, "!=", b) }

// ColumnsLess returns "a<b".
func ColumnsLess[T any](a, b QueryColumn[T]) *Query { return compareColumns(a, "<", b) }

// ColumnsGreater returns "a>b".
func ColumnsGreater[T any](a, b QueryColumn[T]) *Query { return compareColumns(a, ">", b) }

// ColumnsLessEqual returns "a<=b".
func ColumnsLessEqual[T any](a, b QueryColumn[T]) *Query { return compareColumns(a, "<=", b) }

// ColumnsGreaterEqual returns "a>=b".
func ColumnsGreaterEqual[T any](a, b QueryColumn[T]) *Query { return compareColumns(a, ">=", b) }

// IsTrue turns a boolean column into the condition "table.column=TRUE"
// carried as a parameter.
func IsTrue(c QueryColumn[bool]) *Query {
	return c.Equal(true)
}
