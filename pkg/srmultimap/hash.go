package srmultimap

import "github.com/dchest/siphash"

// evictionSeed0/1 mirror pkg/multimap's eviction seeds: siphash is used here
// purely to spread a caller-supplied random value across buckets, not as a
// MAC, so a fixed zero-value key pair is fine.
const evictionSeed0, evictionSeed1 = 0, 0

// evictionIndex folds random across n buckets, matching pkg/multimap's
// evictionHash (spec.md section 9's "uniform 64-bit random... interpreted
// modulo current bucket count").
func evictionIndex(random uint64, n int) int {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	putUint64(buf[:], random)
	h := siphash.Hash(evictionSeed0, evictionSeed1, buf[:])
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
