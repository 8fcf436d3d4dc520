package multimap

import (
	"testing"

	"github.com/flowtable/backlog/pkg/datatype"
	"github.com/flowtable/backlog/pkg/record"
	"github.com/stretchr/testify/assert"
)

func TestArityOf(t *testing.T) {
	assert.Equal(t, ArityOne, ArityOf(1))
	assert.Equal(t, ArityTwo, ArityOf(2))
	assert.Equal(t, ArityMany, ArityOf(3))
	assert.Equal(t, ArityMany, ArityOf(5))
}

func TestManyKeyExactness(t *testing.T) {
	k1 := record.Record{datatype.Int(1), datatype.Text("a")}
	k2 := record.Record{datatype.Int(1), datatype.Text("a")}
	k3 := record.Record{datatype.Int(1), datatype.Text("b")}

	assert.Equal(t, manyKey(k1), manyKey(k2))
	assert.NotEqual(t, manyKey(k1), manyKey(k3))
}

func TestManyKeyDistinguishesShapesNotJustConcatenation(t *testing.T) {
	// {Int(1), Text("ab")} must not collide with {Int(1), Text("a"), Text("b")}
	// style boundary confusion; Encode length-prefixes text so this holds.
	a := record.Record{datatype.Int(1), datatype.Text("ab")}
	b := record.Record{datatype.Int(1), datatype.Text("a"), datatype.Text("b")}
	assert.NotEqual(t, manyKey(a), manyKey(b))
}

func TestEvictionHashWithinBounds(t *testing.T) {
	for n := 1; n <= 8; n++ {
		for random := uint64(0); random < 50; random++ {
			idx := evictionHash(random, n)
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, n)
		}
	}
}

func TestEvictionHashEmptyBucketCount(t *testing.T) {
	assert.Equal(t, 0, evictionHash(123, 0))
}
