package oplog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryConstructors(t *testing.T) {
	r := rec(7)

	pos := AddPositive("foo", r)
	assert.Equal(t, entryTypeAddPositive, pos.t)

	neg := AddNegative("foo", r)
	assert.Equal(t, entryTypeAddNegative, neg.t)

	set := Set[string]("foo")
	assert.Equal(t, entryTypeSet, set.t)
	assert.Nil(t, set.r)

	del := Delete[string]("foo")
	assert.Equal(t, entryTypeDelete, del.t)
}
