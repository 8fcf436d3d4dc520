// Package datatype implements the sum-typed column value that backlog
// records are built from: integers, text, reals, timestamps, and null.
package datatype

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind identifies which variant of DataType is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindText
	KindReal
	KindTimestamp
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindReal:
		return "real"
	case KindTimestamp:
		return "timestamp"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// DataType is a single column value. It's deliberately built only out of
// primitive fields (no slices, maps, or pointers) so that it remains
// comparable and can be used directly as a Go map key, or as an element of
// a fixed-size array key, without any boxing.
type DataType struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Null returns the null DataType.
func Null() DataType {
	return DataType{kind: KindNull}
}

// Int returns a DataType wrapping an integer.
func Int(v int64) DataType {
	return DataType{kind: KindInt, i: v}
}

// Text returns a DataType wrapping a string.
func Text(v string) DataType {
	return DataType{kind: KindText, s: v}
}

// Real returns a DataType wrapping a floating point number.
func Real(v float64) DataType {
	return DataType{kind: KindReal, f: v}
}

// Timestamp returns a DataType wrapping a point in time, stored as Unix
// nanoseconds so that the resulting DataType remains comparable (time.Time's
// monotonic reading would otherwise make two values that print identically
// compare unequal).
func Timestamp(v time.Time) DataType {
	return DataType{kind: KindTimestamp, i: v.UnixNano()}
}

// Bool returns a DataType wrapping a boolean.
func Bool(v bool) DataType {
	var i int64
	if v {
		i = 1
	}
	return DataType{kind: KindBool, i: i}
}

// Kind returns which variant is populated.
func (d DataType) Kind() Kind { return d.kind }

// IsNull reports whether this is the null value.
func (d DataType) IsNull() bool { return d.kind == KindNull }

// Int returns the wrapped integer. Only meaningful when Kind() == KindInt.
func (d DataType) Int() int64 { return d.i }

// Text returns the wrapped string. Only meaningful when Kind() == KindText.
func (d DataType) Text() string { return d.s }

// Real returns the wrapped float. Only meaningful when Kind() == KindReal.
func (d DataType) Real() float64 { return d.f }

// Bool returns the wrapped boolean. Only meaningful when Kind() == KindBool.
func (d DataType) Bool() bool { return d.i != 0 }

// Time returns the wrapped timestamp. Only meaningful when Kind() == KindTimestamp.
func (d DataType) Time() time.Time { return time.Unix(0, d.i) }

// String renders the value for debugging and log output.
func (d DataType) String() string {
	switch d.kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(d.i, 10)
	case KindText:
		return d.s
	case KindReal:
		return strconv.FormatFloat(d.f, 'g', -1, 64)
	case KindTimestamp:
		return d.Time().Format(time.RFC3339Nano)
	case KindBool:
		return strconv.FormatBool(d.i != 0)
	default:
		return fmt.Sprintf("<unknown datatype kind %d>", d.kind)
	}
}

// sizeOfHeader is the approximate fixed overhead of a DataType value itself,
// independent of any string it might hold.
const sizeOfHeader = uint64(1 + 8 + 8 + 16) // kind + i + f + string header

// DeepSizeOf estimates the number of bytes this value occupies, including
// the backing storage of any string payload. It's an estimate, not an exact
// accounting of runtime memory layout, which is the same tradeoff the
// original source's SizeOf/deep_size_of made.
func (d DataType) DeepSizeOf() uint64 {
	if d.kind == KindText {
		return sizeOfHeader + uint64(len(d.s))
	}
	return sizeOfHeader
}

// Encode appends an exact, order-preserving-free but collision-free
// byte encoding of d to buf and returns the extended slice. It's used to
// build composite keys out of more than two columns, where Go has no
// native comparable "slice of DataType" type to use as a map key directly.
func (d DataType) Encode(buf []byte) []byte {
	buf = append(buf, byte(d.kind))
	switch d.kind {
	case KindInt, KindTimestamp, KindBool:
		var tmp [8]byte
		putUint64(tmp[:], uint64(d.i))
		buf = append(buf, tmp[:]...)
	case KindReal:
		var tmp [8]byte
		putUint64(tmp[:], math.Float64bits(d.f))
		buf = append(buf, tmp[:]...)
	case KindText:
		var tmp [8]byte
		putUint64(tmp[:], uint64(len(d.s)))
		buf = append(buf, tmp[:]...)
		buf = append(buf, d.s...)
	case KindNull:
		// no payload
	}
	return buf
}

func putUint64(b []byte, v uint64) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}
