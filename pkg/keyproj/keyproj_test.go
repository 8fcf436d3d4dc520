package keyproj

import (
	"testing"

	"github.com/flowtable/backlog/pkg/datatype"
	"github.com/flowtable/backlog/pkg/record"
	"github.com/stretchr/testify/assert"
)

func TestContiguous(t *testing.T) {
	assert.True(t, Contiguous([]int{0}))
	assert.True(t, Contiguous([]int{1, 2, 3}))
	assert.False(t, Contiguous([]int{0, 2}))
	assert.True(t, Contiguous(nil))
}

func TestFromRecordContiguousIsZeroCopy(t *testing.T) {
	rec := record.Record{datatype.Int(1), datatype.Text("a"), datatype.Text("b")}
	key := FromRecord([]int{1, 2}, true, rec)
	assert.Equal(t, record.Record{datatype.Text("a"), datatype.Text("b")}, key)

	// Mutating the backing record through the key's shared array is
	// observable in rec, proving this path didn't allocate a copy.
	key[0] = datatype.Text("mutated")
	assert.Equal(t, datatype.Text("mutated"), rec[1])
}

func TestFromRecordNonContiguousAllocates(t *testing.T) {
	rec := record.Record{datatype.Int(1), datatype.Text("a"), datatype.Text("b")}
	key := FromRecord([]int{0, 2}, false, rec)
	assert.Equal(t, record.Record{datatype.Int(1), datatype.Text("b")}, key)

	key[0] = datatype.Int(99)
	assert.Equal(t, datatype.Int(1), rec[0], "non-contiguous projection must not alias rec")
}
