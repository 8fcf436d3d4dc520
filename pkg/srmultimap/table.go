package srmultimap

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/flowtable/backlog/pkg/record"
)

// table is the shared-read analog of pkg/multimap's table: same
// readable/writable double buffer and oplog-replay discipline, but the
// stored value is a Bag of uid-tagged rows rather than a plain record bag.
type table[K comparable] struct {
	readable *map[K]Bag
	writable *map[K]Bag

	writeLock sync.Mutex
	log       log[K]

	initOnce sync.Once
}

func (t *table[K]) init() {
	t.initOnce.Do(func() {
		r := make(map[K]Bag)
		t.readable = &r
		w := make(map[K]Bag)
		t.writable = &w
	})
}

func newTable[K comparable]() *table[K] {
	t := &table[K]{}
	t.init()
	return t
}

func (t *table[K]) swap() {
	readable := unsafe.Pointer(t.readable)
	writable := unsafe.Pointer(t.writable)
	t.readable = (*map[K]Bag)(atomic.SwapPointer(&writable, readable))
	t.writable = (*map[K]Bag)(atomic.SwapPointer(&readable, writable))
}

func (t *table[K]) sync() {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	defer t.log.clear()

	t.log.apply(*t.writable)
}

// Refresh publishes staged writes to readers: the same single linearization
// point as pkg/multimap's table.Refresh.
func (t *table[K]) Refresh() {
	t.swap()
	t.sync()
}

// AddTagged stages (and immediately applies to the writable side) tagging
// rec with uid at key: unions uid onto the matching row if one already
// exists, otherwise appends a new row. Returns the signed deep-size delta.
func (t *table[K]) AddTagged(key K, rec record.Record, uid uint64) int64 {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	return t.log.pushAndApply(addTagged(key, rec, uid), *t.writable)
}

// RemoveTagged untags uid from the matching row at key, dropping the row
// entirely once its last uid is removed. Returns the (non-positive) signed
// deep-size delta.
func (t *table[K]) RemoveTagged(key K, rec record.Record, uid uint64) int64 {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	return t.log.pushAndApply(removeTagged(key, rec, uid), *t.writable)
}

// SetFilled forces the bag at key to exist, empty, discarding any prior rows.
func (t *table[K]) SetFilled(key K) int64 {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	return t.log.pushAndApply(setFilled[K](key), *t.writable)
}

// Delete removes key entirely.
func (t *table[K]) Delete(key K) int64 {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	return t.log.pushAndApply(deleteKey[K](key), *t.writable)
}

// Len returns the number of keys currently visible to readers (materialization
// state is shared across uids; visibility filtering happens at the row level).
func (t *table[K]) Len() int {
	return len(*t.readable)
}

// IsEmpty reports whether the map currently visible to readers has no keys.
func (t *table[K]) IsEmpty() bool {
	return len(*t.readable) == 0
}

// Peek returns the rows stored at key in the readable snapshot (untagged by
// any particular uid), and whether the key is present at all.
func (t *table[K]) Peek(key K) (Bag, bool) {
	bag, ok := (*t.readable)[key]
	return bag, ok
}

// ForEach applies f to the uid-filtered view of every bag currently visible
// to readers.
func (t *table[K]) ForEach(uid uint64, f func(record.Bag)) {
	for _, bag := range *t.readable {
		f(bag.VisibleTo(uid))
	}
}

func (t *table[K]) writableKeys() []K {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	keys := make([]K, 0, len(*t.writable))
	for k := range *t.writable {
		keys = append(keys, k)
	}
	return keys
}

func (t *table[K]) peekWritable(key K) (Bag, bool) {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	bag, ok := (*t.writable)[key]
	return bag, ok
}
