// Package record implements Record, the ordered tuple of DataType values
// that flows through the backlog, and Delta, the positive/negative event
// that upstream operators emit.
package record

import "github.com/flowtable/backlog/pkg/datatype"

// Record is one row: an ordered tuple of typed column values.
type Record []datatype.DataType

// Clone returns an independent copy of r. Callers that intend to retain a
// Record past the call that produced it (e.g. storing it in a backlog map)
// should clone it first if the caller's own buffer might be reused.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// Equal reports whether r and other have the same columns in the same
// order. DataType is comparable, so this is a simple element-wise scan.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// sizeOfSliceHeader approximates the overhead of the backing slice itself,
// independent of the DataType values it holds.
const sizeOfSliceHeader = uint64(24)

// DeepSizeOf estimates the number of bytes r occupies, summing each
// column's DeepSizeOf plus the slice header overhead.
func (r Record) DeepSizeOf() uint64 {
	total := sizeOfSliceHeader
	for _, v := range r {
		total += v.DeepSizeOf()
	}
	return total
}

// Bag is the multiset of records stored at a single key: insertion order is
// preserved, there is no ordering across keys.
type Bag []Record

// DeepSizeOf sums the deep size of every record in the bag.
func (b Bag) DeepSizeOf() uint64 {
	var total uint64
	for _, r := range b {
		total += r.DeepSizeOf()
	}
	return total
}

// Clone returns a bag holding the same records (the Record values
// themselves are copy-on-write since they're never mutated in place once
// stored, so this only needs to copy the outer slice).
func (b Bag) Clone() Bag {
	if b == nil {
		return nil
	}
	out := make(Bag, len(b))
	copy(out, b)
	return out
}

// Delta is a single positive (insert) or negative (delete) record event.
type Delta struct {
	Record   Record
	Positive bool
}

// Positive constructs an insert delta.
func Positive(r Record) Delta {
	return Delta{Record: r, Positive: true}
}

// Negative constructs a delete delta.
func Negative(r Record) Delta {
	return Delta{Record: r, Positive: false}
}

// DeepSizeOf estimates the size of the wrapped record. Negative deltas are
// sized the same as positive ones — the byte cost being freed or charged is
// a property of the record's content, not of the delta's sign.
func (d Delta) DeepSizeOf() uint64 {
	return d.Record.DeepSizeOf()
}
