package record

import (
	"testing"

	"github.com/flowtable/backlog/pkg/datatype"
	"github.com/stretchr/testify/assert"
)

func a() Record { return Record{datatype.Int(1), datatype.Text("a")} }
func b() Record { return Record{datatype.Int(1), datatype.Text("b")} }

func TestEqual(t *testing.T) {
	assert.True(t, a().Equal(a()))
	assert.False(t, a().Equal(b()))
	assert.False(t, a().Equal(Record{datatype.Int(1)}))
}

func TestClone(t *testing.T) {
	r := a()
	c := r.Clone()
	assert.True(t, r.Equal(c))
	c[0] = datatype.Int(99)
	assert.False(t, r.Equal(c), "mutating the clone must not affect the original")
}

func TestDeepSizeOf(t *testing.T) {
	assert.Greater(t, a().DeepSizeOf(), uint64(0))
	assert.Greater(t, Record{datatype.Text("a longer string")}.DeepSizeOf(), Record{datatype.Text("x")}.DeepSizeOf())
}

func TestDeltaConstructors(t *testing.T) {
	p := Positive(a())
	assert.True(t, p.Positive)
	n := Negative(a())
	assert.False(t, n.Positive)
	assert.Equal(t, p.DeepSizeOf(), n.DeepSizeOf())
}
