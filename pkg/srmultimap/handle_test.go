package srmultimap

import (
	"testing"

	"github.com/flowtable/backlog/pkg/datatype"
	"github.com/flowtable/backlog/pkg/multimap"
	"github.com/flowtable/backlog/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row1(k int64, rest ...string) record.Record {
	rec := record.Record{datatype.Int(k)}
	for _, s := range rest {
		rec = append(rec, datatype.Text(s))
	}
	return rec
}

// TestMultiUserIsolation mirrors spec.md section 8 scenario 5: writer 0 adds
// a; writer 1 adds a and b; writer 2 adds a. Each reader, on the same key,
// sees only what its own uid authored.
func TestMultiUserIsolation(t *testing.T) {
	h := New(multimap.ArityOne, 0)
	a := row1(1, "a")
	b := row1(1, "b")

	uid1 := h.NewUID()
	uid2 := h.NewUID()

	h.Add([]int{0}, true, []record.Delta{record.Positive(a)}, 0)
	h.Add([]int{0}, true, []record.Delta{record.Positive(a), record.Positive(b)}, uid1)
	h.Add([]int{0}, true, []record.Delta{record.Positive(a)}, uid2)
	h.Refresh()

	key := record.Record{datatype.Int(1)}

	bag0, ok := h.Peek(key, 0)
	require.True(t, ok)
	require.Len(t, bag0, 1)
	assert.True(t, bag0[0].Equal(a))

	bag1, ok := h.Peek(key, uid1)
	require.True(t, ok)
	assert.Len(t, bag1, 2)

	bag2, ok := h.Peek(key, uid2)
	require.True(t, ok)
	require.Len(t, bag2, 1)
	assert.True(t, bag2[0].Equal(a))
}

func TestAddSameRecordFromTwoUsersSharesStorageNotDuplicated(t *testing.T) {
	h := New(multimap.ArityOne, 0)
	a := row1(1, "a")
	uid1 := h.NewUID()

	h.Add([]int{0}, true, []record.Delta{record.Positive(a)}, 0)
	h.Add([]int{0}, true, []record.Delta{record.Positive(a)}, uid1)
	h.Refresh()

	bag, ok := h.one.Peek(datatype.Int(1))
	require.True(t, ok)
	require.Len(t, bag, 1, "identical record from a second uid must union onto the existing row, not duplicate it")
	assert.Len(t, bag[0].UIDs, 2)
}

func TestCloneNewUserDoesNotRetroactivelyGrantVisibility(t *testing.T) {
	h := New(multimap.ArityOne, 0)
	a := row1(1, "a")

	h.Add([]int{0}, true, []record.Delta{record.Positive(a)}, 0)
	h.Refresh()

	uid1 := h.NewUID()
	key := record.Record{datatype.Int(1)}

	bag, ok := h.Peek(key, uid1)
	require.True(t, ok, "materialization state is shared across uids")
	assert.Len(t, bag, 0, "a fresh uid must not retroactively see records it never added")
}

func TestRemoveTaggedOnlyRemovesOwnTagUntilLastUIDDrops(t *testing.T) {
	h := New(multimap.ArityOne, 0)
	a := row1(1, "a")
	uid1 := h.NewUID()

	h.Add([]int{0}, true, []record.Delta{record.Positive(a)}, 0)
	h.Add([]int{0}, true, []record.Delta{record.Positive(a)}, uid1)
	h.Refresh()

	delta := h.Add([]int{0}, true, []record.Delta{record.Negative(a)}, 0)
	assert.Less(t, delta, int64(0))
	h.Refresh()

	key := record.Record{datatype.Int(1)}
	_, ok := h.Peek(key, 0)
	require.True(t, ok)
	bag0, _ := h.Peek(key, 0)
	assert.Len(t, bag0, 0, "uid 0's tag is gone")

	bag1, ok := h.Peek(key, uid1)
	require.True(t, ok)
	require.Len(t, bag1, 1, "uid1 never removed its own tag")

	delta = h.Add([]int{0}, true, []record.Delta{record.Negative(a)}, uid1)
	assert.Less(t, delta, int64(0))
	h.Refresh()

	rawBag, ok := h.one.Peek(datatype.Int(1))
	require.True(t, ok)
	assert.Len(t, rawBag, 0, "row is dropped once its last uid tag is removed")
}

func TestSetFilledAndRemoveAreSharedAcrossUIDs(t *testing.T) {
	h := New(multimap.ArityOne, 0)
	uid1 := h.NewUID()

	h.SetFilled(record.Record{datatype.Int(7)})
	h.Refresh()

	key := record.Record{datatype.Int(7)}
	_, ok := h.Peek(key, uid1)
	assert.True(t, ok, "mark-filled is visible to every uid, not just the caller")

	h.Remove(key)
	h.Refresh()
	_, ok = h.Peek(key, uid1)
	assert.False(t, ok)
}

func TestEmptyAtIndexFiltersEvictedBagByUID(t *testing.T) {
	h := New(multimap.ArityOne, 0)
	a := row1(1, "a")
	uid1 := h.NewUID()

	h.Add([]int{0}, true, []record.Delta{record.Positive(a)}, uid1)

	evicted, delta, ok := h.EmptyAtIndex(3, 0)
	require.True(t, ok)
	assert.Len(t, evicted, 0, "uid 0 never added to this row")
	assert.Less(t, delta, int64(0))
}

func TestArityManyAndTwoSharedRead(t *testing.T) {
	hTwo := New(multimap.ArityTwo, 0)
	uid1 := hTwo.NewUID()
	r := record.Record{datatype.Int(1), datatype.Int(2), datatype.Text("x")}
	hTwo.Add([]int{0, 1}, true, []record.Delta{record.Positive(r)}, uid1)
	hTwo.Refresh()

	key := record.Record{datatype.Int(1), datatype.Int(2)}
	bag, ok := hTwo.Peek(key, uid1)
	require.True(t, ok)
	require.Len(t, bag, 1)

	_, ok = hTwo.Peek(key, 0)
	require.True(t, ok)

	hMany := New(multimap.ArityMany, 0)
	rMany := record.Record{datatype.Int(1), datatype.Int(2), datatype.Int(3), datatype.Text("y")}
	hMany.Add([]int{0, 1, 2}, true, []record.Delta{record.Positive(rMany)}, 0)
	hMany.Refresh()

	bagMany, ok := hMany.Peek(record.Record{datatype.Int(1), datatype.Int(2), datatype.Int(3)}, 0)
	require.True(t, ok)
	assert.Len(t, bagMany, 1)
}
