package datatype

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsAndAccessors(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.Equal(t, int64(42), Int(42).Int())
	assert.Equal(t, "hello", Text("hello").Text())
	assert.Equal(t, 3.14, Real(3.14).Real())
	assert.True(t, Bool(true).Bool())
	assert.False(t, Bool(false).Bool())

	now := time.Now()
	ts := Timestamp(now)
	assert.Equal(t, now.UnixNano(), ts.Time().UnixNano())
}

func TestEquality(t *testing.T) {
	assert.Equal(t, Int(1), Int(1))
	assert.NotEqual(t, Int(1), Int(2))
	assert.NotEqual(t, Int(1), Text("1"))
	assert.Equal(t, Text("a"), Text("a"))
}

func TestDeepSizeOf(t *testing.T) {
	assert.Less(t, Null().DeepSizeOf(), Text("some longer string").DeepSizeOf())
	assert.Greater(t, Text("abc").DeepSizeOf(), Text("").DeepSizeOf())
}

func TestEncodeDistinctValuesProduceDistinctBytes(t *testing.T) {
	a := Encode(nil, Int(1), Text("a"))
	b := Encode(nil, Int(1), Text("b"))
	c := Encode(nil, Int(2), Text("a"))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)

	same := Encode(nil, Int(1), Text("a"))
	assert.Equal(t, a, same)
}

func Encode(buf []byte, vs ...DataType) []byte {
	for _, v := range vs {
		buf = v.Encode(buf)
	}
	return buf
}
