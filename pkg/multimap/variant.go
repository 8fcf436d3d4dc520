package multimap

import (
	"github.com/dchest/siphash"
	"github.com/flowtable/backlog/pkg/record"
)

// Arity identifies which of the three specialized backends a Handle uses,
// matching spec.md section 9's "tagged variant {Single, Double, Many}
// specialized on key type" design note, and the original source's
// multir/multiw Handle::{Single,Double,Many} split.
type Arity uint8

const (
	ArityOne Arity = iota + 1
	ArityTwo
	ArityMany
)

// ArityOf returns the backend variant for a key of the given length.
func ArityOf(keyLen int) Arity {
	switch {
	case keyLen == 1:
		return ArityOne
	case keyLen == 2:
		return ArityTwo
	default:
		return ArityMany
	}
}

// manyKeySeed0/1 are the fixed siphash keys evictionHash uses; arity>=3 map
// keys are not hashed (see manyKey). They don't need to be secret — siphash
// is used here purely for its speed and distribution, not as a MAC — so
// zero-value seeds are fine and keep construction allocation-free.
const manyKeySeed0, manyKeySeed1 = 0, 0

// manyKey canonicalizes an arity>=3 key into a comparable Go value usable as
// a map key. Go has no native comparable "slice of DataType" type, so the
// key is first encoded to an exact, collision-free byte representation
// (datatype.DataType.Encode) and that byte string is used as the map key
// directly. This must be exact, not hashed: two distinct keys colliding
// here would silently merge unrelated rows.
func manyKey(key record.Record) string {
	var buf []byte
	for _, v := range key {
		buf = v.Encode(buf)
	}
	return string(buf)
}

// evictionHash folds an external caller-supplied random value across n
// buckets using siphash, matching spec.md section 9's "empty_at_index
// expects a uniform 64-bit random... interpreted modulo its current bucket
// count." siphash is already wired in for key hashing (see router.go's
// shardBy), so reusing it here avoids pulling in a second hash function
// for conceptually the same "spread a value over buckets" job.
func evictionHash(random uint64, n int) int {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	putUint64(buf[:], random)
	h := siphash.Hash(manyKeySeed0, manyKeySeed1, buf[:])
	return int(h % uint64(n))
}

func putUint64(b []byte, v uint64) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}
