package multimap

import (
	"sync/atomic"

	"github.com/flowtable/backlog/pkg/datatype"
	"github.com/flowtable/backlog/pkg/keyproj"
	"github.com/flowtable/backlog/pkg/record"
)

// Handle is the single-user keyed multi-map backend (spec.md section 4.2),
// dispatching to one of three arity-specialized tables. Only one of one/two/
// many is non-nil at a time, selected by arity — the tagged variant spec.md
// section 9 calls for, rather than open subtype polymorphism.
type Handle struct {
	arity Arity

	one  *table[datatype.DataType]
	two  *table[[2]datatype.DataType]
	many *table[string]

	swapped atomic.Bool
	epoch   atomic.Int64
}

// New constructs a Handle specialized for the given key arity.
func New(arity Arity) *Handle {
	h := &Handle{arity: arity}
	switch arity {
	case ArityOne:
		h.one = newTable[datatype.DataType]()
	case ArityTwo:
		h.two = newTable[[2]datatype.DataType]()
	default:
		h.many = newTable[string]()
	}
	return h
}

// Arity reports which backend variant this Handle uses.
func (h *Handle) Arity() Arity { return h.arity }

// EverSwapped reports whether Refresh has been called at least once. Shared
// across every clone of this Handle, so a reader created before the first
// publish observes the same answer as one created after.
func (h *Handle) EverSwapped() bool { return h.swapped.Load() }

// Epoch returns the number of times Refresh has published a new snapshot,
// the "meta" version callers receive alongside every read (spec.md section
// 3's "Meta value m").
func (h *Handle) Epoch() int64 { return h.epoch.Load() }

func canonOne(key record.Record) datatype.DataType {
	return key[0]
}

func canonTwo(key record.Record) [2]datatype.DataType {
	return [2]datatype.DataType{key[0], key[1]}
}

// Add projects the key out of every delta's record using keyCols/contiguous
// and applies it to the specialized table, returning the total signed
// deep-size delta across the whole batch.
func (h *Handle) Add(keyCols []int, contiguous bool, deltas []record.Delta) int64 {
	var total int64
	for _, d := range deltas {
		key := keyproj.FromRecord(keyCols, contiguous, d.Record)
		if d.Positive {
			total += h.addPositive(key, d.Record)
		} else {
			total += h.addNegative(key, d.Record)
		}
	}
	return total
}

func (h *Handle) addPositive(key, rec record.Record) int64 {
	switch h.arity {
	case ArityOne:
		return h.one.AddPositive(canonOne(key), rec)
	case ArityTwo:
		return h.two.AddPositive(canonTwo(key), rec)
	default:
		return h.many.AddPositive(manyKey(key), rec)
	}
}

func (h *Handle) addNegative(key, rec record.Record) int64 {
	switch h.arity {
	case ArityOne:
		return h.one.AddNegative(canonOne(key), rec)
	case ArityTwo:
		return h.two.AddNegative(canonTwo(key), rec)
	default:
		return h.many.AddNegative(manyKey(key), rec)
	}
}

// Refresh publishes staged writes to readers (spec.md section 4.2's "swap").
func (h *Handle) Refresh() {
	switch h.arity {
	case ArityOne:
		h.one.Refresh()
	case ArityTwo:
		h.two.Refresh()
	default:
		h.many.Refresh()
	}
	h.swapped.Store(true)
	h.epoch.Add(1)
}

// SetFilled forces key to state Filled, empty (spec.md section 4.2's Clear).
func (h *Handle) SetFilled(key record.Record) int64 {
	switch h.arity {
	case ArityOne:
		return h.one.SetFilled(canonOne(key))
	case ArityTwo:
		return h.two.SetFilled(canonTwo(key))
	default:
		return h.many.SetFilled(manyKey(key))
	}
}

// Remove deletes key entirely (spec.md section 4.2's Empty), returning the
// signed (non-positive) deep-size delta this caused.
func (h *Handle) Remove(key record.Record) int64 {
	switch h.arity {
	case ArityOne:
		return h.one.Delete(canonOne(key))
	case ArityTwo:
		return h.two.Delete(canonTwo(key))
	default:
		return h.many.Delete(manyKey(key))
	}
}

// Peek returns the bag at key as currently visible to readers, and whether
// the key is present at all.
func (h *Handle) Peek(key record.Record) (record.Bag, bool) {
	switch h.arity {
	case ArityOne:
		return h.one.Peek(canonOne(key))
	case ArityTwo:
		return h.two.Peek(canonTwo(key))
	default:
		return h.many.Peek(manyKey(key))
	}
}

// Len returns the number of keys currently visible to readers.
func (h *Handle) Len() int {
	switch h.arity {
	case ArityOne:
		return h.one.Len()
	case ArityTwo:
		return h.two.Len()
	default:
		return h.many.Len()
	}
}

// IsEmpty reports whether the map currently visible to readers is empty.
func (h *Handle) IsEmpty() bool {
	switch h.arity {
	case ArityOne:
		return h.one.IsEmpty()
	case ArityTwo:
		return h.two.IsEmpty()
	default:
		return h.many.IsEmpty()
	}
}

// ForEach applies f to every bag currently visible to readers.
func (h *Handle) ForEach(f func(record.Bag)) {
	switch h.arity {
	case ArityOne:
		h.one.ForEach(f)
	case ArityTwo:
		h.two.ForEach(f)
	default:
		h.many.ForEach(f)
	}
}

// EmptyAtIndex picks a key pseudo-randomly out of the writable side using
// random folded modulo the current key count (spec.md section 9), removes
// it, and returns the evicted bag along with the signed (non-positive)
// deep-size delta the removal caused. Returns (nil, 0, false) if the map is
// currently empty.
func (h *Handle) EmptyAtIndex(random uint64) (evicted record.Bag, delta int64, ok bool) {
	switch h.arity {
	case ArityOne:
		return h.emptyAtIndexOne(random)
	case ArityTwo:
		return h.emptyAtIndexTwo(random)
	default:
		return h.emptyAtIndexMany(random)
	}
}

func (h *Handle) emptyAtIndexOne(random uint64) (record.Bag, int64, bool) {
	keys := h.one.writableKeys()
	if len(keys) == 0 {
		return nil, 0, false
	}
	key := keys[evictionHash(random, len(keys))]
	bag, _ := h.one.peekWritable(key)
	delta := h.one.Delete(key)
	return bag, delta, true
}

func (h *Handle) emptyAtIndexTwo(random uint64) (record.Bag, int64, bool) {
	keys := h.two.writableKeys()
	if len(keys) == 0 {
		return nil, 0, false
	}
	key := keys[evictionHash(random, len(keys))]
	bag, _ := h.two.peekWritable(key)
	delta := h.two.Delete(key)
	return bag, delta, true
}

func (h *Handle) emptyAtIndexMany(random uint64) (record.Bag, int64, bool) {
	keys := h.many.writableKeys()
	if len(keys) == 0 {
		return nil, 0, false
	}
	key := keys[evictionHash(random, len(keys))]
	bag, _ := h.many.peekWritable(key)
	delta := h.many.Delete(key)
	return bag, delta, true
}
