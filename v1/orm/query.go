package orm

import (
	"strings"
)

// PartKind tags the fragments of a query clause.
type PartKind int

const (
	PartColumn PartKind = iota
	PartParam
	PartNative
	PartBool
)

// ClausePart is one fragment of a clause. For PartColumn Part is the
// qualified column, for PartNative the raw SQL, and for PartParam an optional
// conversion expression in which "(?)" marks the parameter.
type ClausePart struct {
	Kind PartKind
	Part string
	Bool bool
}

// Query accumulates SQL fragments and the parameters they reference. The
// clause is rendered and the parameter binding built only when the query is
// executed.
//
// Builder methods mutate the receiver and return it for chaining. The first
// error encountered while encoding a parameter is kept and reported by Err
// and ParametersBinding.
//
// Example:
//
//	q := orm.And(
//	    person.Age.GreaterEqual(18),
//	    person.Name.EqualArg(orm.Ref(&name)),
//	).AppendNative("ORDER BY").AppendColumn("person", "age")
type Query struct {
	clause  []ClausePart
	params  []*Param
	binding *Binding
	dirty   bool
	err     error
}

// NewQuery returns an empty query. An empty query matches every row.
func NewQuery() *Query {
	return &Query{dirty: true}
}

// True returns the constant true query.
func True() *Query {
	return NewQuery().AppendBool(true)
}

// False returns the constant false query.
func False() *Query {
	return NewQuery().AppendBool(false)
}

// Native returns a query made of raw SQL text.
func Native(sql string) *Query {
	return NewQuery().AppendNative(sql)
}

// ColumnQuery returns a query referencing table.column.
func ColumnQuery(table, column string) *Query {
	return NewQuery().AppendColumn(table, column)
}

// AppendColumn adds a qualified column reference.
func (q *Query) AppendColumn(table, column string) *Query {
	q.clause = append(q.clause, ClausePart{Kind: PartColumn, Part: table + "." + column})
	return q
}

// AppendNative adds raw SQL text. Empty text is ignored.
func (q *Query) AppendNative(sql string) *Query {
	if sql == "" {
		return q
	}
	q.clause = append(q.clause, ClausePart{Kind: PartNative, Part: sql})
	return q
}

// AppendBool adds a TRUE or FALSE literal.
func (q *Query) AppendBool(v bool) *Query {
	q.clause = append(q.clause, ClausePart{Kind: PartBool, Bool: v})
	return q
}

// AppendParam adds a parameter. conversion may be empty; otherwise the
// parameter placeholder replaces "(?)" inside it.
func (q *Query) AppendParam(p *Param, conversion string) *Query {
	q.clause = append(q.clause, ClausePart{Kind: PartParam, Part: conversion})
	q.params = append(q.params, p)
	q.dirty = true
	return q
}

// AppendValue encodes v as a value parameter of the declared type.
func (q *Query) AppendValue(id TypeID, v any) *Query {
	codec, err := CodecFor(id, nil)
	if err != nil {
		return q.fail(err)
	}
	p, err := NewValueParam(codec, v)
	if err != nil {
		return q.fail(err)
	}
	return q.AppendParam(p, "")
}

// Append adds every fragment and parameter of other to q.
func (q *Query) Append(other *Query) *Query {
	if other == nil {
		return q
	}
	if other.err != nil && q.err == nil {
		q.err = other.err
	}
	q.clause = append(q.clause, other.clause...)
	for _, p := range other.params {
		q.params = append(q.params, p.clone())
	}
	q.dirty = true
	return q
}

// Concat returns a new query made of q followed by other. Neither input is
// modified.
func (q *Query) Concat(other *Query) *Query {
	return q.Clone().Append(other)
}

// Clone returns an independent copy of q.
func (q *Query) Clone() *Query {
	return NewQuery().Append(q)
}

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// Err returns the first parameter encoding error, if any.
func (q *Query) Err() error {
	return q.err
}

// Parts returns the clause fragments.
func (q *Query) Parts() []ClausePart {
	return q.clause
}

// Parameters returns the parameters in placeholder order.
func (q *Query) Parameters() []*Param {
	return q.params
}

// Empty reports whether the query has no fragments.
func (q *Query) Empty() bool {
	return len(q.clause) == 0
}

// ConstTrue reports whether the query is empty or the single literal TRUE.
func (q *Query) ConstTrue() bool {
	return len(q.clause) == 0 || (len(q.clause) == 1 && q.clause[0].Kind == PartBool && q.clause[0].Bool)
}

// ConstFalse reports whether the query is the single literal FALSE.
func (q *Query) ConstFalse() bool {
	return len(q.clause) == 1 && q.clause[0].Kind == PartBool && !q.clause[0].Bool
}

// And combines x and y with AND, folding constant operands.
func And(x, y *Query) *Query {
	switch {
	case x.ConstTrue():
		return y.Clone().inherit(x)
	case y.ConstTrue():
		return x.Clone().inherit(y)
	case x.ConstFalse() || y.ConstFalse():
		return False().inherit(x, y)
	}
	return Native("(").Append(x).AppendNative(") AND (").Append(y).AppendNative(")")
}

// Or combines x and y with OR, folding constant operands.
func Or(x, y *Query) *Query {
	switch {
	case x.ConstFalse():
		return y.Clone().inherit(x)
	case y.ConstFalse():
		return x.Clone().inherit(y)
	case x.ConstTrue() || y.ConstTrue():
		return True().inherit(x, y)
	}
	return Native("(").Append(x).AppendNative(") OR (").Append(y).AppendNative(")")
}

// Not negates x, folding a constant operand.
func Not(x *Query) *Query {
	switch {
	case x.ConstTrue():
		return False().inherit(x)
	case x.ConstFalse():
		return True().inherit(x)
	}
	return Native("NOT (").Append(x).AppendNative(")")
}

// inherit keeps the first error of dropped operands.
func (q *Query) inherit(from ...*Query) *Query {
	for _, f := range from {
		if f.err != nil {
			return q.fail(f.err)
		}
	}
	return q
}

var clauseKeywords = []string{"WHERE", "ORDER BY", "GROUP BY", "HAVING", "LIMIT"}

func hasClauseKeyword(s string) bool {
	s = strings.TrimSpace(s)
	for _, kw := range clauseKeywords {
		if len(s) < len(kw) || !strings.EqualFold(s[:len(kw)], kw) {
			continue
		}
		if len(s) == len(kw) || s[len(kw)] == ' ' || s[len(kw)] == '\n' || s[len(kw)] == '\t' {
			return true
		}
	}
	return false
}

// ClausePrefix returns "WHERE " unless the query is empty or already starts
// with WHERE, ORDER BY, GROUP BY, HAVING or LIMIT.
func (q *Query) ClausePrefix() string {
	if len(q.clause) == 0 {
		return ""
	}
	if first := q.clause[0]; first.Kind == PartNative && hasClauseKeyword(first.Part) {
		return ""
	}
	return "WHERE "
}

// Clause renders the query with its prefix, ready to be appended to a
// SELECT. An empty query renders as "".
func (q *Query) Clause(d Dialect) string {
	body := q.Render(d)
	if body == "" {
		return ""
	}
	return q.ClausePrefix() + body
}

func isOperator(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("=!<>", r) {
			return false
		}
	}
	return true
}

// Render walks the fragments in order, substituting the dialect placeholder
// for each parameter. Comparison operators are rendered without surrounding
// spaces, so a column compared to a parameter reads "t.c=?".
func (q *Query) Render(d Dialect) string {
	if d == nil {
		d = QuestionDialect{}
	}

	var sb strings.Builder
	prevOp := false
	n := 0
	for _, p := range q.clause {
		var tok string
		op := false
		switch p.Kind {
		case PartColumn:
			tok = p.Part
		case PartParam:
			n++
			ph := d.Placeholder(n)
			if p.Part != "" {
				tok = strings.Replace(p.Part, "(?)", "("+ph+")", 1)
			} else {
				tok = ph
			}
		case PartNative:
			tok = p.Part
			op = isOperator(tok)
		case PartBool:
			if p.Bool {
				tok = "TRUE"
			} else {
				tok = "FALSE"
			}
		}

		if sb.Len() > 0 && !op && !prevOp {
			last := sb.String()[sb.Len()-1]
			if last != '(' && last != ',' && tok[0] != ',' && tok[0] != ')' {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(tok)
		prevOp = op
	}
	return sb.String()
}

// InitParameters re-reads every reference parameter. Parameters whose buffer
// grew are bound again and the binding version is bumped, so statements
// executing the query rebind.
func (q *Query) InitParameters() error {
	if q.err != nil {
		return q.err
	}
	changed := false
	for i, p := range q.params {
		if p.mode != ReferenceParam {
			continue
		}
		grew, err := p.init()
		if err != nil {
			return err
		}
		if grew && !q.dirty && q.binding != nil {
			p.bind(&q.binding.Bind[i])
			changed = true
		}
	}
	if changed {
		q.binding.Version++
	}
	return nil
}

// ParametersBinding returns the binding of the parameters, rebuilding it
// after the query changed. The same *Binding is returned every time; its
// version increases on each rebuild.
func (q *Query) ParametersBinding() (*Binding, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.binding == nil {
		q.binding = &Binding{}
	}
	if q.dirty {
		if len(q.binding.Bind) != len(q.params) {
			q.binding.Bind = make([]Bind, len(q.params))
		}
		for i, p := range q.params {
			p.bind(&q.binding.Bind[i])
		}
		q.binding.Version++
		q.dirty = false
	}
	return q.binding, nil
}
