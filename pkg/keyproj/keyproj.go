// Package keyproj implements the key-from-record projection described in
// spec.md section 4.4, shared by the root package (WriteHandle.EntryFromRecord)
// and the multi-map backends (bulk Add, which must project a key out of
// every record in a batch).
package keyproj

import "github.com/flowtable/backlog/pkg/record"

// FromRecord projects rec onto keyCols, the way spec.md section 4.4
// describes: a contiguous run of column indices can be returned as a
// re-sliced (zero-copy) view into rec, sharing its backing array; a
// non-contiguous projection must be copied into a freshly allocated
// key, since Go slices can't express a strided view.
func FromRecord(keyCols []int, contiguous bool, rec record.Record) record.Record {
	if len(keyCols) == 0 {
		return nil
	}
	if contiguous {
		start := keyCols[0]
		return rec[start : start+len(keyCols)]
	}
	key := make(record.Record, len(keyCols))
	for i, col := range keyCols {
		key[i] = rec[col]
	}
	return key
}

// Contiguous reports whether keyCols forms a run [i, i+1, ..., i+n-1].
func Contiguous(keyCols []int) bool {
	for i := 1; i < len(keyCols); i++ {
		if keyCols[i] != keyCols[i-1]+1 {
			return false
		}
	}
	return true
}
