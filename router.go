package backlog

import (
	"github.com/dchest/siphash"
	"github.com/flowtable/backlog/pkg/record"
)

// RouterMode tags which shape a Router takes (spec.md section 4.6).
type RouterMode uint8

const (
	RouterSingleton RouterMode = iota + 1
	RouterSharded
)

// Router is the read-side routing shell the dataflow migration layer
// installs read handles into: either a single handle, or a fixed-length
// vector of optional handles routed by key hash.
type Router struct {
	mode      RouterMode
	singleton *ReadHandle
	shards    []*ReadHandle
}

// NewSingletonRouter constructs an empty Singleton router.
func NewSingletonRouter() *Router {
	return &Router{mode: RouterSingleton}
}

// NewShardedRouter constructs an empty Sharded router with n shard slots.
func NewShardedRouter(n int) *Router {
	return &Router{mode: RouterSharded, shards: make([]*ReadHandle, n)}
}

// Mode reports which shape this router uses.
func (r *Router) Mode() RouterMode { return r.mode }

// ShardCount returns the number of shard slots (0 for a Singleton router).
func (r *Router) ShardCount() int { return len(r.shards) }

const shardSeed0, shardSeed1 = 0, 0

// shardBy hashes the first key column and folds it modulo n, the stable
// hash spec.md section 4.6's Sharded routing requires. siphash is reused
// here rather than pulling in a second hash function for the same kind of
// "spread a key across buckets" job pkg/multimap's eviction already does.
func shardBy(key record.Record, n int) int {
	var buf []byte
	buf = key[0].Encode(buf)
	h := siphash.Hash(shardSeed0, shardSeed1, buf)
	return int(h % uint64(n))
}

// SetSingleHandle installs handle into the router. shard is nil for a
// Singleton router, or a shard index for a Sharded one. The target slot
// must be empty — re-installing over an already-set slot is a programming
// error and panics, matching the original source's set_single_handle
// assertion (spec.md section 9).
func (r *Router) SetSingleHandle(shard *int, handle *ReadHandle) {
	switch r.mode {
	case RouterSingleton:
		if shard != nil {
			panic("backlog: shard index given to a Singleton router")
		}
		if r.singleton != nil {
			panic("backlog: SetSingleHandle on an already-populated Singleton router")
		}
		r.singleton = handle
	case RouterSharded:
		if shard == nil {
			panic("backlog: Sharded router requires a shard index")
		}
		if *shard < 0 || *shard >= len(r.shards) {
			panic("backlog: shard index out of range")
		}
		if r.shards[*shard] != nil {
			panic("backlog: SetSingleHandle on an already-populated shard")
		}
		r.shards[*shard] = handle
	}
}

// RouteTryFindAnd dispatches a lookup through the router: for Singleton it
// delegates directly; for Sharded it requires a single-column key and routes
// by shard_by(key[0], N). A Router is not itself a ReadHandle (its lookup
// needs a type parameter TryFindAnd can't carry as a method — see
// readhandle.go), so this mirrors TryFindAnd's shape as a free function.
func RouteTryFindAnd[T any](r *Router, key record.Record, f func(record.Bag) T) (value T, ok bool, meta int64, err error) {
	switch r.mode {
	case RouterSingleton:
		if r.singleton == nil {
			err = ErrNotReady
			return
		}
		return TryFindAnd(r.singleton, key, f)
	case RouterSharded:
		if len(key) != 1 {
			panic("backlog: Sharded routing requires a single-column key")
		}
		idx := shardBy(key, len(r.shards))
		handle := r.shards[idx]
		if handle == nil {
			err = ErrNotReady
			return
		}
		return TryFindAnd(handle, key, f)
	default:
		err = ErrNotReady
		return
	}
}
