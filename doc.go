// Package backlog implements the materialized result cache that sits at the
// leaf of a streaming dataflow query: a keyed, multi-version map that
// absorbs positive/negative record deltas from upstream operators and
// exposes a wait-free read path to end-user lookups. Views can be fully
// materialized (every key always answerable) or partial (entries created on
// demand by triggering an upstream replay on a reader miss).
package backlog
