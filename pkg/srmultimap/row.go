// Package srmultimap implements the shared-read (multi-user) variant of the
// keyed multi-map: multiple logical users share one underlying table, but
// each stored row is tagged with the set of user ids authorized to see it.
// Adding an already-present record from a new uid unions that uid onto the
// existing row instead of duplicating storage (spec.md section 9: "This is
// preferable to per-user map copies because the working set of most keys is
// shared.").
package srmultimap

import "github.com/flowtable/backlog/pkg/record"

// uidOverhead approximates the per-tag bookkeeping cost of adding one more
// user id to a row's authorized set.
const uidOverhead = uint64(8)

// rowHeaderSize approximates the fixed overhead of a Row itself, independent
// of its record and however many uids are tagged onto it.
const rowHeaderSize = uint64(24)

// Row is one stored record plus the set of user ids currently authorized to
// see it.
type Row struct {
	Rec  record.Record
	UIDs map[uint64]struct{}
}

func newRow(rec record.Record, uid uint64) Row {
	return Row{Rec: rec, UIDs: map[uint64]struct{}{uid: {}}}
}

// VisibleTo reports whether uid is authorized to see this row.
func (r Row) VisibleTo(uid uint64) bool {
	_, ok := r.UIDs[uid]
	return ok
}

// DeepSizeOf estimates the bytes this row occupies: its header, its record's
// own deep size, and one uidOverhead per tagged user.
func (r Row) DeepSizeOf() uint64 {
	return rowHeaderSize + r.Rec.DeepSizeOf() + uint64(len(r.UIDs))*uidOverhead
}

// Bag is the set of tagged rows stored at one key.
type Bag []Row

// DeepSizeOf sums the deep size of every row in the bag.
func (b Bag) DeepSizeOf() uint64 {
	var total uint64
	for _, r := range b {
		total += r.DeepSizeOf()
	}
	return total
}

// VisibleTo returns the plain records in b that uid is authorized to see,
// preserving row order. The original backing rows are never mutated: the
// result is a fresh slice, or nil when no row is visible to uid.
func (b Bag) VisibleTo(uid uint64) record.Bag {
	var out record.Bag
	for _, row := range b {
		if row.VisibleTo(uid) {
			out = append(out, row.Rec)
		}
	}
	return out
}

// findEqual returns the index of the row in b whose record equals rec, or -1.
func (b Bag) findEqual(rec record.Record) int {
	for i, row := range b {
		if row.Rec.Equal(rec) {
			return i
		}
	}
	return -1
}
