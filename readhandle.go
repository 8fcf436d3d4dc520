package backlog

import (
	"github.com/flowtable/backlog/pkg/multimap"
	"github.com/flowtable/backlog/pkg/record"
	"github.com/flowtable/backlog/pkg/srmultimap"
	"github.com/sirupsen/logrus"
)

// ReadHandle is a cheap, clonable lookup handle onto a backing map (spec.md
// section 4.5). Exactly one of single/shared is non-nil, mirroring
// WriteHandle.
type ReadHandle struct {
	single *multimap.Handle
	shared *srmultimap.Handle

	keyCols []int
	uid     uint64
	trigger TriggerFunc
	logger  *logrus.Entry
}

func (r *ReadHandle) everSwapped() bool {
	if r.shared != nil {
		return r.shared.EverSwapped()
	}
	return r.single.EverSwapped()
}

func (r *ReadHandle) epoch() int64 {
	if r.shared != nil {
		return r.shared.Epoch()
	}
	return r.single.Epoch()
}

func (r *ReadHandle) peek(key record.Record) (record.Bag, bool) {
	if r.shared != nil {
		return r.shared.Peek(key, r.uid)
	}
	return r.single.Peek(key)
}

// TryFindAnd looks key up and applies f to its bag, encoding the three-way
// result spec.md section 4.5 describes as a Rust Result<Option<T>, ()>:
// Go methods can't add type parameters beyond their receiver's, so this is a
// package-level generic function rather than a method on ReadHandle.
//
//   - err == ErrNotReady: no swap has published a snapshot yet.
//   - err == nil, ok == false: key is in a Hole state in a partial view —
//     the caller must treat this as a miss, typically by calling Trigger.
//   - err == nil, ok == true: key is Filled (possibly empty); value is
//     f(bag). On a fully materialized view, an absent key is treated as an
//     empty bag rather than a miss.
func TryFindAnd[T any](r *ReadHandle, key record.Record, f func(record.Bag) T) (value T, ok bool, meta int64, err error) {
	if !r.everSwapped() {
		err = ErrNotReady
		return
	}

	meta = r.epoch()
	bag, present := r.peek(key)
	if present {
		value = f(bag)
		ok = true
		return
	}

	if r.trigger != nil {
		// Hole: caller must invoke Trigger and retry.
		return
	}

	// Fully materialized view, absent key: "no matching rows".
	value = f(nil)
	ok = true
	return
}

// Trigger asks the upstream graph to materialize key. Must not be called on
// a fully materialized view — doing so is a programming error and panics
// (spec.md section 4.5/4.7).
func (r *ReadHandle) Trigger(key record.Record) {
	if r.trigger == nil {
		panic("backlog: trigger called on a fully materialized view")
	}
	var uid *uint64
	if r.shared != nil {
		u := r.uid
		uid = &u
	}
	if r.logger != nil {
		r.logger.WithField("key", key).Debug("dispatching replay trigger")
	}
	r.trigger(key, uid)
}

// Len returns the number of keys currently visible to readers.
func (r *ReadHandle) Len() int {
	if r.shared != nil {
		return r.shared.Len()
	}
	return r.single.Len()
}

// CountRows performs a whole-map scan counting every visible record, summed
// across keys. This is expensive and, in some backends, may briefly contend
// with writer publication (spec.md section 4.5).
func (r *ReadHandle) CountRows() int {
	total := 0
	f := func(bag record.Bag) { total += len(bag) }
	if r.shared != nil {
		r.shared.ForEach(r.uid, f)
	} else {
		r.single.ForEach(f)
	}
	return total
}

// Universe returns the uid this handle is bound to.
func (r *ReadHandle) Universe() uint64 { return r.uid }

// Clone duplicates this reader for the same uid. Multi-user only.
func (r *ReadHandle) Clone() (*ReadHandle, bool) {
	if r.shared == nil {
		return nil, false
	}
	clone := *r
	return &clone, true
}

// CloneNewUser mints a fresh uid sharing this handle's backing table and
// returns a reader bound to it. Multi-user only.
func (r *ReadHandle) CloneNewUser() (newUID uint64, reader *ReadHandle, ok bool) {
	if r.shared == nil {
		return 0, nil, false
	}
	newUID = r.shared.NewUID()
	clone := *r
	clone.uid = newUID
	return newUID, &clone, true
}

// CloneNewUserPartial is CloneNewUser but rebinds the new reader to trigger.
func (r *ReadHandle) CloneNewUserPartial(trigger TriggerFunc) (newUID uint64, reader *ReadHandle, ok bool) {
	if r.shared == nil {
		return 0, nil, false
	}
	newUID = r.shared.NewUID()
	clone := *r
	clone.uid = newUID
	clone.trigger = trigger
	return newUID, &clone, true
}
