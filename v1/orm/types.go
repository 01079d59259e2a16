package orm

import "fmt"

// TypeID identifies the declared database type of a column or query parameter.
// It selects the ParameterCodec used to encode values and the native wire type
// the value travels as.
type TypeID int

const (
	TypeTiny TypeID = iota
	TypeUTiny
	TypeShort
	TypeUShort
	TypeLong
	TypeULong
	TypeLongLong
	TypeULongLong
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeDate
	TypeTime
	TypeDatetime
	TypeTimestamp
	TypeYear
	TypeString
	TypeBlob
	TypeBit
	TypeEnum
	TypeSet
)

var typeNames = [...]string{
	TypeTiny:      "tiny",
	TypeUTiny:     "utiny",
	TypeShort:     "short",
	TypeUShort:    "ushort",
	TypeLong:      "long",
	TypeULong:     "ulong",
	TypeLongLong:  "longlong",
	TypeULongLong: "ulonglong",
	TypeFloat:     "float",
	TypeDouble:    "double",
	TypeDecimal:   "decimal",
	TypeDate:      "date",
	TypeTime:      "time",
	TypeDatetime:  "datetime",
	TypeTimestamp: "timestamp",
	TypeYear:      "year",
	TypeString:    "string",
	TypeBlob:      "blob",
	TypeBit:       "bit",
	TypeEnum:      "enum",
	TypeSet:       "set",
}

func (t TypeID) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("TypeID(%d)", int(t))
}

// WireType is the native buffer type tag carried by a Bind descriptor.
type WireType int

const (
	WireTiny WireType = iota
	WireShort
	WireLong
	WireLongLong
	WireFloat
	WireDouble
	WireNewDecimal
	WireDate
	WireTime
	WireDatetime
	WireTimestamp
	WireString
	WireBlob
)

var wireNames = [...]string{
	WireTiny:       "TINY",
	WireShort:      "SHORT",
	WireLong:       "LONG",
	WireLongLong:   "LONGLONG",
	WireFloat:      "FLOAT",
	WireDouble:     "DOUBLE",
	WireNewDecimal: "NEWDECIMAL",
	WireDate:       "DATE",
	WireTime:       "TIME",
	WireDatetime:   "DATETIME",
	WireTimestamp:  "TIMESTAMP",
	WireString:     "STRING",
	WireBlob:       "BLOB",
}

func (w WireType) String() string {
	if w >= 0 && int(w) < len(wireNames) {
		return wireNames[w]
	}
	return fmt.Sprintf("WireType(%d)", int(w))
}

// fixedSize returns the inline buffer size of fixed-width wire types and 0 for
// variable-length ones.
func (w WireType) fixedSize() int {
	switch w {
	case WireTiny:
		return 1
	case WireShort:
		return 2
	case WireLong, WireFloat:
		return 4
	case WireLongLong, WireDouble:
		return 8
	case WireDate, WireTime, WireDatetime, WireTimestamp:
		return temporalSize
	default:
		return 0
	}
}

func (w WireType) isInteger() bool {
	return w == WireTiny || w == WireShort || w == WireLong || w == WireLongLong
}

func (w WireType) isTemporal() bool {
	return w == WireDate || w == WireTime || w == WireDatetime || w == WireTimestamp
}

// FetchResult is the outcome of fetching one row from a select statement.
// Neither NoData nor Truncated is an error.
type FetchResult int

const (
	// FetchSuccess means a row is available and every column fit its buffer.
	FetchSuccess FetchResult = iota

	// FetchNoData means the result set is exhausted. The pending result has
	// already been released.
	FetchNoData

	// FetchTruncated means a row is available but at least one variable-length
	// column did not fit its buffer. Grow the buffers and call Refetch.
	FetchTruncated
)

func (r FetchResult) String() string {
	switch r {
	case FetchSuccess:
		return "success"
	case FetchNoData:
		return "no_data"
	case FetchTruncated:
		return "truncated"
	default:
		return fmt.Sprintf("FetchResult(%d)", int(r))
	}
}
