// Package multimap implements the single-user keyed multi-map described in
// spec section 4.2: a double-buffered map from a projected key to a bag
// (multiset) of records. It's a direct generalization of
// clarkmcc/go-evmap's Map[K, V]: the same readable/writable pointer-swap
// discipline, with V fixed to record.Bag and an oplog that knows how to
// append/remove-one/set/delete a bag instead of insert/delete/clear a
// plain value.
package multimap

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/flowtable/backlog/pkg/oplog"
	"github.com/flowtable/backlog/pkg/record"
)

// table is a generic hashmap from a canonicalized key K to a record bag,
// providing low-contention, concurrent access the way clarkmcc/go-evmap's
// Map does: one side is read-only (readable) and one side absorbs writes
// (writable); Refresh swaps them and replays the write log onto the newly
// writable side.
type table[K comparable] struct {
	readable *map[K]record.Bag
	writable *map[K]record.Bag

	// writeLock guards writable and the oplog. It's the sole serialization
	// point between the writer and the publish swap; readers never take it.
	writeLock sync.Mutex

	log *oplog.Log[K]

	initOnce sync.Once
}

func (t *table[K]) init() {
	t.initOnce.Do(func() {
		r := make(map[K]record.Bag)
		t.readable = &r
		w := make(map[K]record.Bag)
		t.writable = &w
		t.log = oplog.NewLog[K]()
	})
}

func newTable[K comparable]() *table[K] {
	t := &table[K]{}
	t.init()
	return t
}

// swap exchanges the readable and writable pointers so that the map most
// recently written to becomes visible to readers, and the map readers were
// just looking at becomes the new write target.
func (t *table[K]) swap() {
	readable := unsafe.Pointer(t.readable)
	writable := unsafe.Pointer(t.writable)
	t.readable = (*map[K]record.Bag)(atomic.SwapPointer(&writable, readable))
	t.writable = (*map[K]record.Bag)(atomic.SwapPointer(&readable, writable))
}

// sync replays the oplog accumulated since the last swap onto the map now
// pointed to by writable (the map that was readable just before the swap,
// and therefore missing every write made during that interval).
func (t *table[K]) sync() {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	defer t.log.Clear()

	t.log.Apply(*t.writable)
}

// Refresh publishes every staged write to readers: swap, then catch the new
// writable side up via the oplog. This is the one linearization point in
// the whole table — readers either observe every change up to here, or none
// of them.
func (t *table[K]) Refresh() {
	t.swap()
	t.sync()
}

// AddPositive appends r to the bag at key on the writable side, staging the
// same append to replay onto the other side on the next Refresh. Returns
// the positive deep-size delta this caused.
func (t *table[K]) AddPositive(key K, r record.Record) int64 {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	return t.log.PushAndApply(oplog.AddPositive(key, r), *t.writable)
}

// AddNegative removes one occurrence of r from the bag at key on the
// writable side (a no-op if absent there), staging the same removal to
// replay onto the other side on the next Refresh. Returns the (non-positive)
// deep-size delta this caused.
func (t *table[K]) AddNegative(key K, r record.Record) int64 {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	return t.log.PushAndApply(oplog.AddNegative(key, r), *t.writable)
}

// SetFilled forces the bag at key to exist, empty, discarding any prior
// contents, and stages the same transition to replay onto the other side.
// Returns the (non-positive) deep-size delta this caused.
func (t *table[K]) SetFilled(key K) int64 {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	return t.log.PushAndApply(oplog.Set[K](key), *t.writable)
}

// Delete removes key from the writable side entirely and stages the same
// deletion to replay onto the other side. Returns the (non-positive)
// deep-size delta this caused.
func (t *table[K]) Delete(key K) int64 {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	return t.log.PushAndApply(oplog.Delete[K](key), *t.writable)
}

// Len returns the number of keys currently visible to readers.
func (t *table[K]) Len() int {
	return len(*t.readable)
}

// IsEmpty reports whether the map currently visible to readers has no keys.
func (t *table[K]) IsEmpty() bool {
	return len(*t.readable) == 0
}

// ForEach applies f to every bag currently visible to readers. Like the
// original source documents, this can be expensive and will briefly
// contend with a concurrent Refresh.
func (t *table[K]) ForEach(f func(record.Bag)) {
	for _, bag := range *t.readable {
		f(bag)
	}
}

// Peek returns the bag stored at key in the readable snapshot, and whether
// the key is present at all. The returned slice is never mutated in place
// by the table (every mutation replaces the map entry, never the slice
// backing array in place), so it's safe for a reader to hold onto it
// without copying.
func (t *table[K]) Peek(key K) (record.Bag, bool) {
	bag, ok := (*t.readable)[key]
	return bag, ok
}

// writableKeys returns a snapshot of the keys currently in the writable map, for
// random eviction (see Handle.EmptyAtIndex).
func (t *table[K]) writableKeys() []K {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	keys := make([]K, 0, len(*t.writable))
	for k := range *t.writable {
		keys = append(keys, k)
	}
	return keys
}

// peekWritable returns the bag stored at key on the writable side. Random
// eviction picks a key out of writable (see writableKeys) and must read the
// bag it's about to delete from that same side — the readable side may not
// have observed the key yet if no Refresh has happened since it was added.
func (t *table[K]) peekWritable(key K) (record.Bag, bool) {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	bag, ok := (*t.writable)[key]
	return bag, ok
}

