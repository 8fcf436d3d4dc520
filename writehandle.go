package backlog

import (
	"math/rand"

	"github.com/flowtable/backlog/pkg/multimap"
	"github.com/flowtable/backlog/pkg/record"
	"github.com/flowtable/backlog/pkg/srmultimap"
	"github.com/sirupsen/logrus"
)

// WriteHandle is the sole mutator of one backing map (spec.md section 4.4).
// Exactly one of single/shared is non-nil, selected at allocation time by
// Config.SharedRead.
type WriteHandle struct {
	single *multimap.Handle
	shared *srmultimap.Handle

	keyCols    []int
	cols       int
	contiguous bool
	uid        uint64

	memSize int64

	trigger        TriggerFunc
	evictionSource func() uint64
	logger         *logrus.Entry
}

// Add applies every delta via the backend (tagging with this handle's bound
// uid on the multi-user backend) and adjusts mem_size by the returned signed
// delta. A result that would drive mem_size negative is a fatal invariant
// breach (spec.md section 7). Every delta's record must have exactly cols
// columns; a mismatch is a programming error and panics.
func (w *WriteHandle) Add(deltas []record.Delta) int64 {
	for _, d := range deltas {
		if len(d.Record) != w.cols {
			panic("backlog: record does not have cols columns")
		}
	}

	var delta int64
	if w.shared != nil {
		delta = w.shared.Add(w.keyCols, w.contiguous, deltas, w.uid)
	} else {
		delta = w.single.Add(w.keyCols, w.contiguous, deltas)
	}
	w.adjustMemSize(delta)
	return delta
}

// Swap publishes every staged change to readers (spec.md section 4.2).
func (w *WriteHandle) Swap() {
	if w.shared != nil {
		w.shared.Refresh()
	} else {
		w.single.Refresh()
	}
}

// MarkFilled forces key to state Filled, empty — valid only when key is not
// already Filled (spec.md section 4.7: Absent -> Filled is the only inbound
// transition for mark_filled). Marking an already-filled key is a
// programming error and panics.
func (w *WriteHandle) MarkFilled(key record.Record) {
	if _, filled := w.peekPublished(key); filled {
		panic("backlog: mark_filled on an already-filled key")
	}
	delta := w.setFilled(key)
	w.adjustMemSize(delta)
}

// MarkHole subtracts key's current aggregated deep size from mem_size, then
// transitions key to Hole (removes the entry) — spec.md section 4.4/4.7.
func (w *WriteHandle) MarkHole(key record.Record) {
	delta := w.remove(key)
	w.adjustMemSize(delta)
}

// EvictRandomKey picks one key uniformly at random from the writer's own
// published+staged entries, removes it, and returns the number of bytes
// freed. If mem_size is already zero, this is a no-op returning 0. mem_size
// being positive with an empty backing map is a fatal invariant breach
// (spec.md section 4.4).
func (w *WriteHandle) EvictRandomKey() uint64 {
	if w.memSize <= 0 {
		return 0
	}

	random := w.randomSource()()
	var delta int64
	var ok bool
	if w.shared != nil {
		_, delta, ok = w.shared.EmptyAtIndex(random, w.uid)
	} else {
		_, delta, ok = w.single.EmptyAtIndex(random)
	}
	if !ok {
		panic("backlog: mem_size positive but backing map is empty")
	}
	w.adjustMemSize(delta)
	if w.logger != nil {
		w.logger.WithField("bytes_freed", -delta).Debug("evicted key")
	}
	return uint64(-delta)
}

// EntryFromRecord is implemented in key.go.

// IsPartial reports whether this is a partial view (a replay trigger was
// supplied at allocation time).
func (w *WriteHandle) IsPartial() bool { return w.trigger != nil }

// SizeOf returns the current mem_size.
func (w *WriteHandle) SizeOf() int64 { return w.memSize }

// DeepSizeOf is an alias for SizeOf, matching the original source's
// deep_size_of() == mem_size identity (spec.md section 4.4).
func (w *WriteHandle) DeepSizeOf() int64 { return w.memSize }

// Universe returns the uid this handle is bound to.
func (w *WriteHandle) Universe() uint64 { return w.uid }

// Clone duplicates this handle for the same uid, returning a matched
// (reader, writer) pair sharing backing storage. Multi-user only: on a
// single-user backend this returns ok=false rather than panicking, matching
// spec.md section 7's "Unsupported-mode" contract.
func (w *WriteHandle) Clone() (reader *ReadHandle, writer *WriteHandle, ok bool) {
	if w.shared == nil {
		return nil, nil, false
	}
	writer = w.cloneForUID(w.uid)
	reader = writer.newReader()
	return reader, writer, true
}

// CloneNewUser mints a fresh uid sharing this handle's backing table and
// returns a matched (reader, writer) pair bound to it. Multi-user only.
func (w *WriteHandle) CloneNewUser() (newUID uint64, reader *ReadHandle, writer *WriteHandle, ok bool) {
	if w.shared == nil {
		return 0, nil, nil, false
	}
	newUID = w.shared.NewUID()
	writer = w.cloneForUID(newUID)
	reader = writer.newReader()
	return newUID, reader, writer, true
}

// CloneNewUserPartial is CloneNewUser but rebinds the new pair to trigger
// instead of inheriting this handle's trigger.
func (w *WriteHandle) CloneNewUserPartial(trigger TriggerFunc) (newUID uint64, reader *ReadHandle, writer *WriteHandle, ok bool) {
	if w.shared == nil {
		return 0, nil, nil, false
	}
	newUID = w.shared.NewUID()
	writer = w.cloneForUID(newUID)
	writer.trigger = trigger
	reader = writer.newReader()
	reader.trigger = trigger
	return newUID, reader, writer, true
}

func (w *WriteHandle) cloneForUID(uid uint64) *WriteHandle {
	clone := *w
	clone.uid = uid
	clone.memSize = 0
	return &clone
}

func (w *WriteHandle) newReader() *ReadHandle {
	return &ReadHandle{
		single:  w.single,
		shared:  w.shared,
		keyCols: w.keyCols,
		uid:     w.uid,
		trigger: w.trigger,
		logger:  w.logger,
	}
}

func (w *WriteHandle) setFilled(key record.Record) int64 {
	if w.shared != nil {
		return w.shared.SetFilled(key)
	}
	return w.single.SetFilled(key)
}

func (w *WriteHandle) remove(key record.Record) int64 {
	if w.shared != nil {
		return w.shared.Remove(key)
	}
	return w.single.Remove(key)
}

// peekPublished reports whether key is currently Filled as observed
// by readers; mark_filled's precondition is checked against the
// already-published view, consistent with every other reader-visible state
// transition in this spec.
func (w *WriteHandle) peekPublished(key record.Record) (record.Bag, bool) {
	if w.shared != nil {
		return w.shared.Peek(key, w.uid)
	}
	return w.single.Peek(key)
}

func (w *WriteHandle) adjustMemSize(delta int64) {
	next := w.memSize + delta
	if next < 0 {
		panic("backlog: mem_size underflow")
	}
	w.memSize = next
}

func (w *WriteHandle) randomSource() func() uint64 {
	if w.evictionSource != nil {
		return w.evictionSource
	}
	return func() uint64 { return rand.Uint64() }
}
