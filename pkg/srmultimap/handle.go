package srmultimap

import (
	"sync/atomic"

	"github.com/flowtable/backlog/pkg/datatype"
	"github.com/flowtable/backlog/pkg/keyproj"
	"github.com/flowtable/backlog/pkg/multimap"
	"github.com/flowtable/backlog/pkg/record"
)

// Handle is the shared-storage backend for the multi-user variant (spec.md
// section 4.3). Unlike pkg/multimap.Handle, a single Handle is meant to be
// shared by every cloned uid: the uid each operation acts under is passed in
// per call, not bound to the Handle itself. nextUID is the counter
// CloneNewUser draws fresh identities from.
type Handle struct {
	arity multimap.Arity

	one  *table[datatype.DataType]
	two  *table[[2]datatype.DataType]
	many *table[string]

	nextUID atomic.Uint64
	swapped atomic.Bool
	epoch   atomic.Int64
}

// EverSwapped reports whether Refresh has been called at least once.
func (h *Handle) EverSwapped() bool { return h.swapped.Load() }

// Epoch returns the number of times Refresh has published a new snapshot.
func (h *Handle) Epoch() int64 { return h.epoch.Load() }

// New constructs a shared-read Handle specialized for the given key arity.
// uid0 is the initial caller's user id, excluded from the counter so the
// first NewUID() call returns a value distinct from it.
func New(arity multimap.Arity, uid0 uint64) *Handle {
	h := &Handle{arity: arity}
	switch arity {
	case multimap.ArityOne:
		h.one = newTable[datatype.DataType]()
	case multimap.ArityTwo:
		h.two = newTable[[2]datatype.DataType]()
	default:
		h.many = newTable[string]()
	}
	h.nextUID.Store(uid0)
	return h
}

// NewUID mints a fresh user id for CloneNewUser (spec.md section 4.3).
func (h *Handle) NewUID() uint64 {
	return h.nextUID.Add(1)
}

func canonOne(key record.Record) datatype.DataType   { return key[0] }
func canonTwo(key record.Record) [2]datatype.DataType { return [2]datatype.DataType{key[0], key[1]} }

func manyKeyOf(key record.Record) string {
	var buf []byte
	for _, v := range key {
		buf = v.Encode(buf)
	}
	return string(buf)
}

// Add projects the key out of every delta's record and tags or untags uid on
// the matching row, returning the total signed deep-size delta.
func (h *Handle) Add(keyCols []int, contiguous bool, deltas []record.Delta, uid uint64) int64 {
	var total int64
	for _, d := range deltas {
		key := keyproj.FromRecord(keyCols, contiguous, d.Record)
		if d.Positive {
			total += h.addTagged(key, d.Record, uid)
		} else {
			total += h.removeTagged(key, d.Record, uid)
		}
	}
	return total
}

func (h *Handle) addTagged(key, rec record.Record, uid uint64) int64 {
	switch h.arity {
	case multimap.ArityOne:
		return h.one.AddTagged(canonOne(key), rec, uid)
	case multimap.ArityTwo:
		return h.two.AddTagged(canonTwo(key), rec, uid)
	default:
		return h.many.AddTagged(manyKeyOf(key), rec, uid)
	}
}

func (h *Handle) removeTagged(key, rec record.Record, uid uint64) int64 {
	switch h.arity {
	case multimap.ArityOne:
		return h.one.RemoveTagged(canonOne(key), rec, uid)
	case multimap.ArityTwo:
		return h.two.RemoveTagged(canonTwo(key), rec, uid)
	default:
		return h.many.RemoveTagged(manyKeyOf(key), rec, uid)
	}
}

// Refresh publishes staged writes to every reader, regardless of uid.
func (h *Handle) Refresh() {
	switch h.arity {
	case multimap.ArityOne:
		h.one.Refresh()
	case multimap.ArityTwo:
		h.two.Refresh()
	default:
		h.many.Refresh()
	}
	h.swapped.Store(true)
	h.epoch.Add(1)
}

// SetFilled forces key to state Filled, empty, for every uid.
func (h *Handle) SetFilled(key record.Record) int64 {
	switch h.arity {
	case multimap.ArityOne:
		return h.one.SetFilled(canonOne(key))
	case multimap.ArityTwo:
		return h.two.SetFilled(canonTwo(key))
	default:
		return h.many.SetFilled(manyKeyOf(key))
	}
}

// Remove deletes key entirely, for every uid.
func (h *Handle) Remove(key record.Record) int64 {
	switch h.arity {
	case multimap.ArityOne:
		return h.one.Delete(canonOne(key))
	case multimap.ArityTwo:
		return h.two.Delete(canonTwo(key))
	default:
		return h.many.Delete(manyKeyOf(key))
	}
}

// Peek returns the records visible to uid at key, and whether the key is
// present at all (independent of whether anything in it is visible to uid).
func (h *Handle) Peek(key record.Record, uid uint64) (record.Bag, bool) {
	switch h.arity {
	case multimap.ArityOne:
		bag, ok := h.one.Peek(canonOne(key))
		return bag.VisibleTo(uid), ok
	case multimap.ArityTwo:
		bag, ok := h.two.Peek(canonTwo(key))
		return bag.VisibleTo(uid), ok
	default:
		bag, ok := h.many.Peek(manyKeyOf(key))
		return bag.VisibleTo(uid), ok
	}
}

// Len returns the number of keys currently visible to readers (materialization
// state, not row-level visibility, which is why this takes no uid).
func (h *Handle) Len() int {
	switch h.arity {
	case multimap.ArityOne:
		return h.one.Len()
	case multimap.ArityTwo:
		return h.two.Len()
	default:
		return h.many.Len()
	}
}

// IsEmpty reports whether the map currently visible to readers has no keys.
func (h *Handle) IsEmpty() bool {
	switch h.arity {
	case multimap.ArityOne:
		return h.one.IsEmpty()
	case multimap.ArityTwo:
		return h.two.IsEmpty()
	default:
		return h.many.IsEmpty()
	}
}

// ForEach applies f to the uid-filtered records of every bag currently
// visible to readers.
func (h *Handle) ForEach(uid uint64, f func(record.Bag)) {
	switch h.arity {
	case multimap.ArityOne:
		h.one.ForEach(uid, f)
	case multimap.ArityTwo:
		h.two.ForEach(uid, f)
	default:
		h.many.ForEach(uid, f)
	}
}

// EmptyAtIndex picks a key pseudo-randomly out of the writable side and
// removes it entirely (for every uid), returning the records that were
// visible to uid in the evicted bag, the signed deep-size delta, and whether
// anything was evicted.
func (h *Handle) EmptyAtIndex(random uint64, uid uint64) (evicted record.Bag, delta int64, ok bool) {
	switch h.arity {
	case multimap.ArityOne:
		return h.emptyAtIndexOne(random, uid)
	case multimap.ArityTwo:
		return h.emptyAtIndexTwo(random, uid)
	default:
		return h.emptyAtIndexMany(random, uid)
	}
}

func (h *Handle) emptyAtIndexOne(random, uid uint64) (record.Bag, int64, bool) {
	keys := h.one.writableKeys()
	if len(keys) == 0 {
		return nil, 0, false
	}
	key := keys[evictionIndex(random, len(keys))]
	bag, _ := h.one.peekWritable(key)
	delta := h.one.Delete(key)
	return bag.VisibleTo(uid), delta, true
}

func (h *Handle) emptyAtIndexTwo(random, uid uint64) (record.Bag, int64, bool) {
	keys := h.two.writableKeys()
	if len(keys) == 0 {
		return nil, 0, false
	}
	key := keys[evictionIndex(random, len(keys))]
	bag, _ := h.two.peekWritable(key)
	delta := h.two.Delete(key)
	return bag.VisibleTo(uid), delta, true
}

func (h *Handle) emptyAtIndexMany(random, uid uint64) (record.Bag, int64, bool) {
	keys := h.many.writableKeys()
	if len(keys) == 0 {
		return nil, 0, false
	}
	key := keys[evictionIndex(random, len(keys))]
	bag, _ := h.many.peekWritable(key)
	delta := h.many.Delete(key)
	return bag.VisibleTo(uid), delta, true
}
