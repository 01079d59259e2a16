package orm

import "fmt"

// ParamMode tells whether a query parameter holds a snapshot of its value or
// re-reads a live variable before every execution.
type ParamMode int

const (
	// ValueParam encodes the value once, when the query is built.
	ValueParam ParamMode = iota

	// ReferenceParam re-reads the referenced variable in InitParameters.
	ReferenceParam
)

// Param is one bound query parameter with its own buffer. Parameters are
// never NULL.
type Param struct {
	mode   ParamMode
	codec  ParameterCodec
	column Column
	ref    func() any
}

// NewValueParam encodes v with codec and keeps the encoded bytes.
func NewValueParam(codec ParameterCodec, v any) (*Param, error) {
	p := &Param{mode: ValueParam, codec: codec}
	codec.Init(&p.column, 0)
	if v == nil {
		return nil, fmt.Errorf("%w: query parameters cannot be NULL", ErrInvalidParameter)
	}
	if _, err := codec.Encode(&p.column, v); err != nil {
		return nil, err
	}
	return p, nil
}

// NewReferenceParam binds to a live variable read through ref. The current
// value is encoded right away and again before every execution.
func NewReferenceParam(codec ParameterCodec, ref func() any) (*Param, error) {
	p := &Param{mode: ReferenceParam, codec: codec, ref: ref}
	codec.Init(&p.column, 0)
	if _, err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

// Mode returns whether the parameter is a value or a reference.
func (p *Param) Mode() ParamMode {
	return p.mode
}

// TypeID returns the declared type of the parameter.
func (p *Param) TypeID() TypeID {
	return p.codec.TypeID()
}

// Value decodes the parameter's current buffer.
func (p *Param) Value() (any, error) {
	return p.codec.Decode(&p.column)
}

// init re-encodes a reference parameter and reports whether its buffer was
// reallocated. Value parameters never change.
func (p *Param) init() (bool, error) {
	if p.mode != ReferenceParam {
		return false, nil
	}
	v := p.ref()
	if v == nil {
		return false, fmt.Errorf("%w: query parameters cannot be NULL", ErrInvalidParameter)
	}
	return p.codec.Encode(&p.column, v)
}

func (p *Param) bind(b *Bind) {
	bindColumn(b, &p.column)
}

// clone returns a parameter with its own buffer so that two queries built
// from the same fragment never share descriptors.
func (p *Param) clone() *Param {
	c := *p
	c.column.Buffer = append([]byte(nil), p.column.Buffer...)
	return &c
}

// Arg is a typed query argument: either a value or a reference to a variable
// that is read again before every execution of the query.
type Arg[T any] struct {
	val T
	ref *T
}

// Val returns an argument holding a copy of v.
func Val[T any](v T) Arg[T] {
	return Arg[T]{val: v}
}

// Ref returns an argument that reads *p each time the query executes.
func Ref[T any](p *T) Arg[T] {
	return Arg[T]{ref: p}
}

// IsRef reports whether the argument references a variable.
func (a Arg[T]) IsRef() bool {
	return a.ref != nil
}

func (a Arg[T]) param(codec ParameterCodec) (*Param, error) {
	if a.ref != nil {
		ref := a.ref
		return NewReferenceParam(codec, func() any { return *ref })
	}
	return NewValueParam(codec, a.val)
}
