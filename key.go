package backlog

import (
	"github.com/flowtable/backlog/pkg/keyproj"
	"github.com/flowtable/backlog/pkg/record"
)

// EntryFromRecord extracts the key projection from rec: a zero-copy re-slice
// when keyCols is contiguous, otherwise a freshly allocated, column-order
// projection.
func (w *WriteHandle) EntryFromRecord(rec record.Record) record.Record {
	return keyproj.FromRecord(w.keyCols, w.contiguous, rec)
}
