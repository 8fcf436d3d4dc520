package backlog

import (
	"github.com/flowtable/backlog/pkg/record"
	"github.com/sirupsen/logrus"
)

// TriggerFunc asks the upstream dataflow graph to materialize key for the
// given user (nil uid on a single-user backend). It must be thread-safe and
// is invoked fire-and-forget: completion is observed by a later successful
// TryFindAnd, never by this call's return.
type TriggerFunc func(key record.Record, uid *uint64)

// Config holds the allocation factory's parameters (spec.md section 6's
// Allocator contract).
type Config struct {
	// Cols is the record arity; every record pushed through the resulting
	// WriteHandle must have exactly this many columns.
	Cols int

	// KeyCols are the column indices the key is projected from; must be
	// non-empty, each index < Cols.
	KeyCols []int

	// SharedRead selects the multi-user backend when true. There is no
	// auto-promotion: a caller asking for a single-user view always gets
	// one, however the source records might vary in shape (spec.md section
	// 9's resolved Open Question).
	SharedRead bool

	// UID is the initial user id bound to the returned handles; ignored by
	// the single-user backend.
	UID uint64

	// Trigger, if non-nil, makes this a partial view: TryFindAnd reports an
	// absent key as a miss (ok == false) instead of treating it as an empty
	// answer, and ReadHandle.Trigger calls this function for that key.
	// TryFindAnd itself never calls it.
	Trigger TriggerFunc

	logger         *logrus.Logger
	evictionSource func() uint64
}

// OptionFunc customizes a Config, mirroring the teacher's functional-options
// pattern (OptionFunc / WithMaxReplicationWriteLag) from options.go.
type OptionFunc func(*Config)

// WithLogger sets the logger the factory, eviction path, and trigger
// dispatch log through. Defaults to logrus's standard logger.
func WithLogger(logger *logrus.Logger) OptionFunc {
	return func(c *Config) { c.logger = logger }
}

// WithEvictionSource overrides the source of the uniform random input
// EvictRandomKey folds over the current bucket count. Defaults to
// math/rand's global source.
func WithEvictionSource(source func() uint64) OptionFunc {
	return func(c *Config) { c.evictionSource = source }
}
