package orm

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParameterCodec encodes Go values into a column buffer for one declared type.
// There is one implementation per wire type class, chosen by CodecFor when an
// image or a query parameter is built.
type ParameterCodec interface {
	// TypeID returns the declared type the codec serves.
	TypeID() TypeID

	// Init sets the wire type of c and allocates its buffer. Capacity only
	// matters for variable-length types.
	Init(c *Column, capacity int)

	// Encode writes v into c. It reports grew when the buffer had to be
	// reallocated, which invalidates every descriptor pointing at it.
	Encode(c *Column, v any) (grew bool, err error)

	// Decode reads the current value of c. NULL columns decode to nil.
	Decode(c *Column) (any, error)
}

// EnumTraits is supplied by generated code for enumerated columns. It decides
// whether the enum travels as its label or its ordinal.
type EnumTraits interface {
	// AsString reports whether values are bound as labels.
	AsString() bool

	// Encode converts an enum value to its label (string) or ordinal (uint64).
	Encode(v any) (any, error)

	// Decode converts a label or ordinal read from the server back to the
	// enum value.
	Decode(raw any) (any, error)
}

// DefaultBufferCapacity is the initial buffer size of variable-length columns
// and parameters that do not declare one.
const DefaultBufferCapacity = 256

// CodecFor returns the codec of a declared type. enum is only consulted for
// TypeEnum and must be non-nil there.
func CodecFor(id TypeID, enum EnumTraits) (ParameterCodec, error) {
	switch id {
	case TypeTiny:
		return fixedCodec{id: id, wire: WireTiny}, nil
	case TypeUTiny:
		return fixedCodec{id: id, wire: WireTiny, unsigned: true}, nil
	case TypeShort:
		return fixedCodec{id: id, wire: WireShort}, nil
	case TypeUShort:
		return fixedCodec{id: id, wire: WireShort, unsigned: true}, nil
	case TypeLong:
		return fixedCodec{id: id, wire: WireLong}, nil
	case TypeULong:
		return fixedCodec{id: id, wire: WireLong, unsigned: true}, nil
	case TypeLongLong:
		return fixedCodec{id: id, wire: WireLongLong}, nil
	case TypeULongLong:
		return fixedCodec{id: id, wire: WireLongLong, unsigned: true}, nil
	case TypeFloat:
		return fixedCodec{id: id, wire: WireFloat}, nil
	case TypeDouble:
		return fixedCodec{id: id, wire: WireDouble}, nil
	case TypeYear:
		return fixedCodec{id: id, wire: WireShort}, nil
	case TypeDate:
		return temporalCodec{id: id, wire: WireDate}, nil
	case TypeTime:
		return temporalCodec{id: id, wire: WireTime}, nil
	case TypeDatetime:
		return temporalCodec{id: id, wire: WireDatetime}, nil
	case TypeTimestamp:
		return temporalCodec{id: id, wire: WireTimestamp}, nil
	case TypeDecimal:
		return varCodec{id: id, wire: WireNewDecimal}, nil
	case TypeString:
		return varCodec{id: id, wire: WireString}, nil
	case TypeSet:
		return varCodec{id: id, wire: WireString}, nil
	case TypeBlob:
		return varCodec{id: id, wire: WireBlob}, nil
	case TypeBit:
		return bitCodec{}, nil
	case TypeEnum:
		if enum == nil {
			return nil, fmt.Errorf("%w: enum column without enum traits", ErrInvalidParameter)
		}
		if enum.AsString() {
			return enumCodec{traits: enum, inner: varCodec{id: id, wire: WireString}}, nil
		}
		return enumCodec{traits: enum, inner: fixedCodec{id: id, wire: WireLongLong, unsigned: true}}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %s", ErrInvalidParameter, id)
}

func decodeColumn(c *Column) (any, error) {
	var b Bind
	bindColumn(&b, c)
	return b.Value()
}

// fixedCodec serves 1, 2, 4 and 8 byte integers, floats and years.
type fixedCodec struct {
	id       TypeID
	wire     WireType
	unsigned bool
}

func (f fixedCodec) TypeID() TypeID { return f.id }

func (f fixedCodec) Init(c *Column, _ int) {
	c.Type = f.wire
	c.Unsigned = f.unsigned
	c.Buffer = make([]byte, f.wire.fixedSize())
	c.Length = len(c.Buffer)
}

func (f fixedCodec) Encode(c *Column, v any) (bool, error) {
	if t, ok := v.(time.Time); ok && f.id == TypeYear {
		v = int64(t.Year())
	}
	if err := putNumber(c.Buffer, f.wire, f.unsigned, v); err != nil {
		return false, err
	}
	c.Length = len(c.Buffer)
	c.IsNull = false
	return false, nil
}

func (f fixedCodec) Decode(c *Column) (any, error) { return decodeColumn(c) }

// temporalCodec serves DATE, TIME, DATETIME and TIMESTAMP.
type temporalCodec struct {
	id   TypeID
	wire WireType
}

func (t temporalCodec) TypeID() TypeID { return t.id }

func (t temporalCodec) Init(c *Column, _ int) {
	c.Type = t.wire
	c.Buffer = make([]byte, temporalSize)
	c.Length = temporalSize
}

func (t temporalCodec) Encode(c *Column, v any) (bool, error) {
	if err := encodeTemporal(c.Buffer, t.wire, v); err != nil {
		return false, err
	}
	c.Length = temporalSize
	c.IsNull = false
	return false, nil
}

func (t temporalCodec) Decode(c *Column) (any, error) { return decodeColumn(c) }

// varCodec serves DECIMAL, STRING, SET and BLOB. The buffer grows to fit the
// value and the length is measured on every change.
type varCodec struct {
	id   TypeID
	wire WireType
}

func (s varCodec) TypeID() TypeID { return s.id }

func (s varCodec) Init(c *Column, capacity int) {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	c.Type = s.wire
	c.Buffer = make([]byte, capacity)
	c.Length = 0
}

func (s varCodec) Encode(c *Column, v any) (bool, error) {
	data, err := s.bytes(v)
	if err != nil {
		return false, err
	}
	grew := false
	if len(data) > len(c.Buffer) {
		c.Buffer = make([]byte, len(data))
		grew = true
	}
	copy(c.Buffer, data)
	c.Length = len(data)
	c.IsNull = false
	return grew, nil
}

func (s varCodec) bytes(v any) ([]byte, error) {
	if _, ok := v.(fmt.Stringer); !ok {
		v = normalize(v)
	}
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	case []string:
		if s.id == TypeSet {
			return []byte(strings.Join(t, ",")), nil
		}
	case fmt.Stringer:
		return []byte(t.String()), nil
	}
	if s.id == TypeDecimal {
		if i, ok := toInt64(v); ok {
			return []byte(strconv.FormatInt(i, 10)), nil
		}
		if u, ok := toUint64(v); ok {
			return []byte(strconv.FormatUint(u, 10)), nil
		}
		if f, ok := toFloat64(v); ok {
			return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
		}
	}
	return nil, fmt.Errorf("%w: %T cannot be stored as %s", ErrInvalidParameter, v, s.id)
}

func (s varCodec) Decode(c *Column) (any, error) {
	if c.IsNull {
		return nil, nil
	}
	data := c.Buffer[:min(c.Length, len(c.Buffer))]
	switch s.id {
	case TypeBlob:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case TypeSet:
		if len(data) == 0 {
			return []string{}, nil
		}
		return strings.Split(string(data), ","), nil
	default:
		return string(data), nil
	}
}

// bitCodec serves BIT columns: a fixed 8 byte buffer holding the value big
// endian, with an explicit length.
type bitCodec struct{}

func (bitCodec) TypeID() TypeID { return TypeBit }

func (bitCodec) Init(c *Column, _ int) {
	c.Type = WireBlob
	c.Buffer = make([]byte, bitSize)
	c.Length = 0
}

func (bitCodec) Encode(c *Column, v any) (bool, error) {
	switch t := normalize(v).(type) {
	case []byte:
		if len(t) > bitSize {
			return false, fmt.Errorf("%w: bit value of %d bytes exceeds %d", ErrInvalidParameter, len(t), bitSize)
		}
		copy(c.Buffer, t)
		c.Length = len(t)
	default:
		u, ok := toUint64(t)
		if !ok {
			i, isInt := toInt64(t)
			if !isInt || i < 0 {
				return false, fmt.Errorf("%w: %T cannot be stored as bit", ErrInvalidParameter, v)
			}
			u = uint64(i)
		}
		binary.BigEndian.PutUint64(c.Buffer, u)
		c.Length = bitSize
	}
	c.IsNull = false
	return false, nil
}

func (bitCodec) Decode(c *Column) (any, error) {
	if c.IsNull {
		return nil, nil
	}
	var u uint64
	for _, b := range c.Buffer[:min(c.Length, bitSize)] {
		u = u<<8 | uint64(b)
	}
	return u, nil
}

// enumCodec delegates the value mapping to the generated EnumTraits and the
// buffer handling to the string or integer codec they select.
type enumCodec struct {
	traits EnumTraits
	inner  ParameterCodec
}

func (e enumCodec) TypeID() TypeID { return TypeEnum }

func (e enumCodec) Init(c *Column, capacity int) { e.inner.Init(c, capacity) }

func (e enumCodec) Encode(c *Column, v any) (bool, error) {
	raw, err := e.traits.Encode(v)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	return e.inner.Encode(c, raw)
}

func (e enumCodec) Decode(c *Column) (any, error) {
	raw, err := e.inner.Decode(c)
	if err != nil || raw == nil {
		return raw, err
	}
	return e.traits.Decode(raw)
}
