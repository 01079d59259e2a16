package orm

import (
	"fmt"
	"time"
)

// Column is one value slot of an image: the buffer and indicators a Bind
// descriptor points at.
type Column struct {
	Type     WireType
	Unsigned bool

	// Buffer is allocated at full capacity. Only Buffer[:Length] is data.
	Buffer []byte

	Length    int
	IsNull    bool
	Truncated bool
}

// ColumnSpec declares one column of a generated row shape.
type ColumnSpec struct {
	Name string
	Type TypeID

	// Capacity is the initial buffer size of variable-length columns.
	// DefaultBufferCapacity is used when it is zero.
	Capacity int

	// Enum is required for TypeEnum columns.
	Enum EnumTraits
}

// Image is the in-memory row of one object, container element or view.
//
// Version increases whenever a column buffer is reallocated. Bindings built
// over the image watch it to decide when their descriptors are stale.
type Image struct {
	Columns []Column
	Version uint64

	specs  []ColumnSpec
	codecs []ParameterCodec
}

// NewImage allocates an image for the given row shape. Every column starts
// out NULL.
func NewImage(specs []ColumnSpec) (*Image, error) {
	img := &Image{
		Columns: make([]Column, len(specs)),
		specs:   specs,
		codecs:  make([]ParameterCodec, len(specs)),
	}
	for i, spec := range specs {
		codec, err := CodecFor(spec.Type, spec.Enum)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", spec.Name, err)
		}
		codec.Init(&img.Columns[i], spec.Capacity)
		img.Columns[i].IsNull = true
		img.codecs[i] = codec
	}
	return img, nil
}

// Len returns the number of columns.
func (img *Image) Len() int {
	return len(img.Columns)
}

// Index returns the position of the named column or -1.
func (img *Image) Index(name string) int {
	for i, spec := range img.specs {
		if spec.Name == name {
			return i
		}
	}
	return -1
}

// Spec returns the declaration of column i.
func (img *Image) Spec(i int) ColumnSpec {
	return img.specs[i]
}

// Set encodes v into column i. A nil v stores NULL. When the column buffer is
// reallocated to fit v the image version is bumped.
func (img *Image) Set(i int, v any) error {
	if err := img.checkIndex(i); err != nil {
		return err
	}
	if v == nil {
		img.Columns[i].IsNull = true
		return nil
	}
	grew, err := img.codecs[i].Encode(&img.Columns[i], v)
	if err != nil {
		return fmt.Errorf("column %q: %w", img.specs[i].Name, err)
	}
	if grew {
		img.Version++
	}
	return nil
}

func (img *Image) checkIndex(i int) error {
	if i < 0 || i >= len(img.Columns) {
		return fmt.Errorf("%w: column %d out of range", ErrInvalidParameter, i)
	}
	return nil
}

// SetNull marks column i as NULL.
func (img *Image) SetNull(i int) error {
	return img.Set(i, nil)
}

func (img *Image) SetInt(i int, v int64) error     { return img.Set(i, v) }
func (img *Image) SetUint(i int, v uint64) error   { return img.Set(i, v) }
func (img *Image) SetFloat(i int, v float64) error { return img.Set(i, v) }
func (img *Image) SetString(i int, v string) error { return img.Set(i, v) }

// SetBytes stores v in column i. A nil slice stores NULL.
func (img *Image) SetBytes(i int, v []byte) error {
	if v == nil {
		return img.SetNull(i)
	}
	return img.Set(i, v)
}

func (img *Image) SetTime(i int, v time.Time) error { return img.Set(i, v) }

// IsNull reports whether column i holds NULL. i must be in range.
func (img *Image) IsNull(i int) bool {
	return img.Columns[i].IsNull
}

// Value decodes column i. NULL decodes to nil.
func (img *Image) Value(i int) (any, error) {
	if err := img.checkIndex(i); err != nil {
		return nil, err
	}
	return img.codecs[i].Decode(&img.Columns[i])
}

// Int64 returns column i as a signed integer.
func (img *Image) Int64(i int) (int64, error) {
	v, err := img.Value(i)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("%w: column %q is %T, not an integer", ErrInvalidParameter, img.specs[i].Name, v)
}

// Uint64 returns column i as an unsigned integer.
func (img *Image) Uint64(i int) (uint64, error) {
	v, err := img.Value(i)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		return uint64(n), nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("%w: column %q is %T, not an integer", ErrInvalidParameter, img.specs[i].Name, v)
}

// Float64 returns column i as a float.
func (img *Image) Float64(i int) (float64, error) {
	v, err := img.Value(i)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	f, ok := toFloat64(v)
	if !ok {
		return 0, fmt.Errorf("%w: column %q is %T, not a number", ErrInvalidParameter, img.specs[i].Name, v)
	}
	return f, nil
}

// String returns column i as text. Blobs are converted, numbers formatted.
func (img *Image) String(i int) (string, error) {
	v, err := img.Value(i)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case nil:
		return "", nil
	}
	return fmt.Sprint(v), nil
}

// Bytes returns a copy of the data of column i. i must be in range.
func (img *Image) Bytes(i int) []byte {
	c := &img.Columns[i]
	if c.IsNull {
		return nil
	}
	out := make([]byte, min(c.Length, len(c.Buffer)))
	copy(out, c.Buffer)
	return out
}

// Time returns a temporal column i as a time.Time.
func (img *Image) Time(i int) (time.Time, error) {
	v, err := img.Value(i)
	if err != nil {
		return time.Time{}, err
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case nil:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("%w: column %q is %T, not a time", ErrInvalidParameter, img.specs[i].Name, v)
}

// Truncated reports whether any column was truncated by the last fetch.
func (img *Image) Truncated() bool {
	for i := range img.Columns {
		if img.Columns[i].Truncated {
			return true
		}
	}
	return false
}

// GrowTruncated reallocates every truncated column to the length reported by
// the last fetch and bumps the image version. Truncation flags stay set; the
// refetch that follows clears them. It reports whether anything grew.
func (img *Image) GrowTruncated() bool {
	grew := false
	for i := range img.Columns {
		c := &img.Columns[i]
		if !c.Truncated || c.Length <= len(c.Buffer) {
			continue
		}
		buf := make([]byte, c.Length)
		copy(buf, c.Buffer)
		c.Buffer = buf
		grew = true
	}
	if grew {
		img.Version++
	}
	return grew
}
