package oplog

import "github.com/flowtable/backlog/pkg/record"

// Log stores a slice of oplog entries that can be applied to a bag map.
// This data structure is not thread-safe, which means that any implementors
// should provide the concurrency synchronization guarantees.
type Log[K comparable] struct {
	entries []*entry[K]

	// The most recent entry applied to the log
	latest *entry[K]
}

// Push pushes a new entry into the oplog and updates the oplog's latest entry
func (l *Log[K]) Push(e *entry[K]) {
	l.entries = append(l.entries, e)
	l.latest = e
}

// PushAndApply pushes a new entry to the oplog and applies that same entry
// to the provided map, returning the signed change in the map's total deep
// size caused by the entry (positive for growth, negative for shrinkage).
func (l *Log[K]) PushAndApply(e *entry[K], m map[K]record.Bag) int64 {
	l.entries = append(l.entries, e)
	l.latest = e
	return applyEntry(e, m)
}

// Apply applies the oplog to the specified map. Used to catch the new
// writable map (formerly readable) up to date after a swap.
func (l *Log[K]) Apply(m map[K]record.Bag) {
	for _, e := range l.entries {
		applyEntry(e, m)
	}
}

// Clear empties the oplog
func (l *Log[K]) Clear() {
	l.entries = nil
}

// Len returns the current length of the oplog
func (l *Log[K]) Len() int {
	return len(l.entries)
}

// NewLog creates a new oplog with the given key type
func NewLog[K comparable]() *Log[K] {
	return &Log[K]{}
}

// applyEntry is a helper function for applying a single oplog entry to the
// destination map. It returns the signed change in deep size that resulted
// from applying it, so that callers that need memory accounting (WriteHandle)
// don't have to recompute it by diffing the whole map.
func applyEntry[K comparable](e *entry[K], m map[K]record.Bag) int64 {
	switch e.t {
	case entryTypeAddPositive:
		m[e.k] = append(m[e.k], e.r)
		return int64(e.r.DeepSizeOf())
	case entryTypeAddNegative:
		bag, ok := m[e.k]
		if !ok {
			return 0
		}
		for i, existing := range bag {
			if existing.Equal(e.r) {
				out := make(record.Bag, 0, len(bag)-1)
				out = append(out, bag[:i]...)
				m[e.k] = append(out, bag[i+1:]...)
				return -int64(e.r.DeepSizeOf())
			}
		}
		return 0
	case entryTypeSet:
		before := m[e.k].DeepSizeOf()
		m[e.k] = record.Bag{}
		return -int64(before)
	case entryTypeDelete:
		before := m[e.k].DeepSizeOf()
		delete(m, e.k)
		return -int64(before)
	default:
		return 0
	}
}
