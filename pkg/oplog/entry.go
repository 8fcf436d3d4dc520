// Package oplog records the bag mutations applied to a keyed multi-map's
// writable side so that they can be replayed onto the other side once it
// becomes the new writable map after a swap. It's a generalization of
// clarkmcc/go-evmap's pkg/oplog (Insert/Delete/Clear on map[K]*V) to the
// four bag operations the backlog needs: append a record, remove one
// matching occurrence, force a present-empty bag, and delete the key.
package oplog

import "github.com/flowtable/backlog/pkg/record"

// Indicates the supported types of oplog entries that can be stored in the
// oplog. These are the only modifications that can be made to a bag map.
type entryType uint8

const (
	entryTypeAddPositive entryType = iota
	entryTypeAddNegative
	entryTypeSet
	entryTypeDelete
)

// entry is an oplog entry that may (but not always) carry a record.
type entry[K comparable] struct {
	t entryType
	k K
	r record.Record
}

func newEntry[K comparable](t entryType, key K, r record.Record) *entry[K] {
	return &entry[K]{t: t, k: key, r: r}
}

// AddPositive creates an entry that appends r to the bag at key, creating
// the bag if it doesn't already exist.
func AddPositive[K comparable](key K, r record.Record) *entry[K] {
	return newEntry(entryTypeAddPositive, key, r)
}

// AddNegative creates an entry that removes one occurrence of r from the
// bag at key. A no-op if the bag doesn't exist or holds no matching record
// — the removal may still apply successfully when this entry is replayed
// onto the other side of the double buffer.
func AddNegative[K comparable](key K, r record.Record) *entry[K] {
	return newEntry(entryTypeAddNegative, key, r)
}

// Set creates an entry that forces the bag at key to exist and be empty,
// discarding whatever was there before. Used by mark_filled to force a
// present-but-empty bag.
func Set[K comparable](key K) *entry[K] {
	return newEntry[K](entryTypeSet, key, nil)
}

// Delete creates an entry that removes key from the map entirely. Used by
// both mark_hole and random eviction.
func Delete[K comparable](key K) *entry[K] {
	return newEntry[K](entryTypeDelete, key, nil)
}
