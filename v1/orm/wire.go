package orm

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// temporalSize is the inline buffer size of DATE, TIME, DATETIME and
// TIMESTAMP values.
//
// Layout: year (uint16 LE), month, day, hour, minute, second, negative flag,
// microsecond (uint32 LE). TIME values keep whole days in the day byte.
const temporalSize = 12

// bitSize is the fixed buffer size of BIT columns.
const bitSize = 8

func encodeTemporal(buf []byte, w WireType, v any) error {
	for i := range buf[:temporalSize] {
		buf[i] = 0
	}

	if w == WireTime {
		var d time.Duration
		switch t := v.(type) {
		case time.Duration:
			d = t
		case time.Time:
			d = time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second + time.Duration(t.Nanosecond())
		default:
			return fmt.Errorf("%w: %T is not a time of day", ErrInvalidParameter, v)
		}
		if d < 0 {
			buf[7] = 1
			d = -d
		}
		days := d / (24 * time.Hour)
		if days > math.MaxUint8 {
			return fmt.Errorf("%w: time value %s out of range", ErrInvalidParameter, d)
		}
		d -= days * 24 * time.Hour
		buf[3] = byte(days)
		buf[4] = byte(d / time.Hour)
		buf[5] = byte(d % time.Hour / time.Minute)
		buf[6] = byte(d % time.Minute / time.Second)
		binary.LittleEndian.PutUint32(buf[8:], uint32(d%time.Second/time.Microsecond))
		return nil
	}

	t, ok := v.(time.Time)
	if !ok {
		return fmt.Errorf("%w: %T is not a time.Time", ErrInvalidParameter, v)
	}
	if t.Year() < 0 || t.Year() > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidParameter, t.Year())
	}
	binary.LittleEndian.PutUint16(buf[0:], uint16(t.Year()))
	buf[1] = byte(t.Month())
	buf[2] = byte(t.Day())
	if w == WireDate {
		return nil
	}
	buf[4] = byte(t.Hour())
	buf[5] = byte(t.Minute())
	buf[6] = byte(t.Second())
	binary.LittleEndian.PutUint32(buf[8:], uint32(t.Nanosecond()/1000))
	return nil
}

func decodeTemporal(buf []byte, w WireType) any {
	micro := time.Duration(binary.LittleEndian.Uint32(buf[8:])) * time.Microsecond
	if w == WireTime {
		d := time.Duration(buf[3])*24*time.Hour + time.Duration(buf[4])*time.Hour +
			time.Duration(buf[5])*time.Minute + time.Duration(buf[6])*time.Second + micro
		if buf[7] != 0 {
			d = -d
		}
		return d
	}
	return time.Date(int(binary.LittleEndian.Uint16(buf[0:])), time.Month(buf[1]), int(buf[2]),
		int(buf[4]), int(buf[5]), int(buf[6]), int(micro), time.UTC)
}

// parseTemporal accepts the textual forms drivers return when they do not
// parse temporal columns themselves.
func parseTemporal(s string, w WireType) (any, error) {
	if w == WireTime {
		neg := strings.HasPrefix(s, "-")
		s = strings.TrimPrefix(s, "-")
		var h, m int
		var sec float64
		if _, err := fmt.Sscanf(s, "%d:%d:%f", &h, &m, &sec); err != nil {
			return nil, fmt.Errorf("%w: cannot parse time %q", ErrInvalidParameter, s)
		}
		d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec*float64(time.Second))
		if neg {
			d = -d
		}
		return d, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05.999999", time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot parse %s %q", ErrInvalidParameter, w, s)
}

func putInteger(buf []byte, w WireType, v uint64) {
	switch w {
	case WireTiny:
		buf[0] = byte(v)
	case WireShort:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case WireLong:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	default:
		binary.LittleEndian.PutUint64(buf, v)
	}
}

func getInteger(buf []byte, w WireType, unsigned bool) any {
	switch w {
	case WireTiny:
		if unsigned {
			return uint64(buf[0])
		}
		return int64(int8(buf[0]))
	case WireShort:
		v := binary.LittleEndian.Uint16(buf)
		if unsigned {
			return uint64(v)
		}
		return int64(int16(v))
	case WireLong:
		v := binary.LittleEndian.Uint32(buf)
		if unsigned {
			return uint64(v)
		}
		return int64(int32(v))
	default:
		v := binary.LittleEndian.Uint64(buf)
		if unsigned {
			return v
		}
		return int64(v)
	}
}

// integerRange reports the bounds of a fixed-width integer wire type.
func integerRange(w WireType, unsigned bool) (lo int64, hi uint64) {
	bits := uint(w.fixedSize() * 8)
	if unsigned {
		if bits == 64 {
			return 0, math.MaxUint64
		}
		return 0, 1<<bits - 1
	}
	return -1 << (bits - 1), 1<<(bits-1) - 1
}

// normalize converts values of named basic types, such as a generated
// `type UserID int64`, to their underlying builtin type.
func normalize(v any) any {
	switch v.(type) {
	case nil, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, bool, string, []byte, time.Time, time.Duration:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes()
		}
	}
	return v
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	if u, ok := toUint64(v); ok {
		return float64(u), true
	}
	return 0, false
}

// putNumber writes an integer or float value into a fixed-width buffer,
// rejecting values that do not fit the wire type.
func putNumber(buf []byte, w WireType, unsigned bool, v any) error {
	v = normalize(v)
	switch w {
	case WireFloat:
		f, ok := toFloat64(v)
		if !ok {
			return fmt.Errorf("%w: %T is not a number", ErrInvalidParameter, v)
		}
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(f)))
		return nil
	case WireDouble:
		f, ok := toFloat64(v)
		if !ok {
			return fmt.Errorf("%w: %T is not a number", ErrInvalidParameter, v)
		}
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		return nil
	}

	lo, hi := integerRange(w, unsigned)
	if i, ok := toInt64(v); ok {
		if i < lo || (i > 0 && uint64(i) > hi) {
			return fmt.Errorf("%w: %d out of range for %s", ErrInvalidParameter, i, w)
		}
		putInteger(buf, w, uint64(i))
		return nil
	}
	if u, ok := toUint64(v); ok {
		if u > hi {
			return fmt.Errorf("%w: %d out of range for %s", ErrInvalidParameter, u, w)
		}
		putInteger(buf, w, u)
		return nil
	}
	return fmt.Errorf("%w: %T is not an integer", ErrInvalidParameter, v)
}

// Value decodes the bound buffer into a driver-friendly Go value: int64 or
// uint64 for integers, float64 for floats, time.Time or time.Duration for
// temporal types, string for decimals and strings, []byte for blobs.
// A NULL descriptor yields nil.
//
// Native client implementations use it to read parameter values.
func (b *Bind) Value() (any, error) {
	if b.IsNull != nil && *b.IsNull {
		return nil, nil
	}

	n := len(b.Buffer)
	if b.Length != nil && *b.Length < n {
		n = *b.Length
	}

	switch {
	case b.Type.isInteger():
		return getInteger(b.Buffer, b.Type, b.Unsigned), nil
	case b.Type == WireFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b.Buffer))), nil
	case b.Type == WireDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(b.Buffer)), nil
	case b.Type.isTemporal():
		return decodeTemporal(b.Buffer, b.Type), nil
	case b.Type == WireNewDecimal, b.Type == WireString:
		return string(b.Buffer[:n]), nil
	case b.Type == WireBlob:
		out := make([]byte, n)
		copy(out, b.Buffer[:n])
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown wire type %s", ErrInvalidParameter, b.Type)
}

// Store writes a value received from the server into the bound buffer.
//
// Variable-length values are copied up to the buffer capacity. The length
// indicator always receives the full value length and the truncation
// indicator is set when the value did not fit, so the caller can grow the
// buffer and fetch the column again.
//
// Native client implementations use it to deliver result columns.
func (b *Bind) Store(v any) error {
	if b.Truncated != nil {
		*b.Truncated = false
	}
	if v == nil {
		if b.IsNull != nil {
			*b.IsNull = true
		}
		return nil
	}
	if b.IsNull != nil {
		*b.IsNull = false
	}

	switch {
	case b.Type.isInteger() || b.Type == WireFloat || b.Type == WireDouble:
		switch t := v.(type) {
		case []byte:
			return b.storeNumericText(string(t))
		case string:
			return b.storeNumericText(t)
		}
		if err := putNumber(b.Buffer, b.Type, b.Unsigned, v); err != nil {
			return err
		}
		b.setLength(b.Type.fixedSize())
		return nil
	case b.Type.isTemporal():
		switch t := v.(type) {
		case []byte:
			parsed, err := parseTemporal(string(t), b.Type)
			if err != nil {
				return err
			}
			v = parsed
		case string:
			parsed, err := parseTemporal(t, b.Type)
			if err != nil {
				return err
			}
			v = parsed
		}
		if err := encodeTemporal(b.Buffer, b.Type, v); err != nil {
			return err
		}
		b.setLength(temporalSize)
		return nil
	}

	var data []byte
	switch t := v.(type) {
	case []byte:
		data = t
	case string:
		data = []byte(t)
	default:
		data = []byte(fmt.Sprint(v))
	}
	copy(b.Buffer, data)
	b.setLength(len(data))
	if len(data) > len(b.Buffer) && b.Truncated != nil {
		*b.Truncated = true
	}
	return nil
}

func (b *Bind) storeNumericText(s string) error {
	var v any
	var err error
	switch {
	case b.Type == WireFloat || b.Type == WireDouble:
		var f float64
		_, err = fmt.Sscan(s, &f)
		v = f
	case b.Unsigned:
		var u uint64
		_, err = fmt.Sscan(s, &u)
		v = u
	default:
		var i int64
		_, err = fmt.Sscan(s, &i)
		v = i
	}
	if err != nil {
		return fmt.Errorf("%w: cannot parse %q as %s", ErrInvalidParameter, s, b.Type)
	}
	if err := putNumber(b.Buffer, b.Type, b.Unsigned, v); err != nil {
		return err
	}
	b.setLength(b.Type.fixedSize())
	return nil
}

func (b *Bind) setLength(n int) {
	if b.Length != nil {
		*b.Length = n
	}
}
