package srmultimap

import "github.com/flowtable/backlog/pkg/record"

type entryType uint8

const (
	entryTypeAddTagged entryType = iota
	entryTypeRemoveTagged
	entryTypeSet
	entryTypeDelete
)

// entry is one staged mutation, generalizing clarkmcc/go-evmap's oplog entry
// (see pkg/oplog) with the extra uid a shared-read add/remove needs.
type entry[K comparable] struct {
	t   entryType
	k   K
	rec record.Record
	uid uint64
}

func addTagged[K comparable](key K, rec record.Record, uid uint64) *entry[K] {
	return &entry[K]{t: entryTypeAddTagged, k: key, rec: rec, uid: uid}
}

func removeTagged[K comparable](key K, rec record.Record, uid uint64) *entry[K] {
	return &entry[K]{t: entryTypeRemoveTagged, k: key, rec: rec, uid: uid}
}

func setFilled[K comparable](key K) *entry[K] {
	return &entry[K]{t: entryTypeSet, k: key}
}

func deleteKey[K comparable](key K) *entry[K] {
	return &entry[K]{t: entryTypeDelete, k: key}
}

// log accumulates entries applied directly to the writable map; Apply
// replays the same entries onto the other side after a swap.
type log[K comparable] struct {
	entries []*entry[K]
}

func (l *log[K]) pushAndApply(e *entry[K], m map[K]Bag) int64 {
	l.entries = append(l.entries, e)
	return applyEntry(e, m)
}

func (l *log[K]) apply(m map[K]Bag) {
	for _, e := range l.entries {
		applyEntry(e, m)
	}
}

func (l *log[K]) clear() { l.entries = nil }

func applyEntry[K comparable](e *entry[K], m map[K]Bag) int64 {
	switch e.t {
	case entryTypeAddTagged:
		bag := m[e.k]
		if i := bag.findEqual(e.rec); i >= 0 {
			if _, already := bag[i].UIDs[e.uid]; already {
				return 0
			}
			bag[i].UIDs[e.uid] = struct{}{}
			return int64(uidOverhead)
		}
		m[e.k] = append(bag, newRow(e.rec, e.uid))
		return int64(rowHeaderSize + e.rec.DeepSizeOf() + uidOverhead)

	case entryTypeRemoveTagged:
		bag, ok := m[e.k]
		if !ok {
			return 0
		}
		i := bag.findEqual(e.rec)
		if i < 0 {
			return 0
		}
		if _, tagged := bag[i].UIDs[e.uid]; !tagged {
			return 0
		}
		delete(bag[i].UIDs, e.uid)
		if len(bag[i].UIDs) == 0 {
			freed := bag[i].DeepSizeOf() + uidOverhead // the tag already removed above
			out := make(Bag, 0, len(bag)-1)
			out = append(out, bag[:i]...)
			m[e.k] = append(out, bag[i+1:]...)
			return -int64(freed)
		}
		return -int64(uidOverhead)

	case entryTypeSet:
		before := m[e.k].DeepSizeOf()
		m[e.k] = Bag{}
		return -int64(before)

	case entryTypeDelete:
		before := m[e.k].DeepSizeOf()
		delete(m, e.k)
		return -int64(before)

	default:
		return 0
	}
}
