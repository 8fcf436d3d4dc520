package backlog

import "errors"

// ErrNotReady is returned by TryFindAnd before the backing map has ever been
// swapped, and by RouteTryFindAnd when the routed slot holds no handle. Once
// a map has been swapped its handles stay ready: nothing tracks whether the
// writer side has gone away. It's the only recoverable
// error this package surfaces; every other invariant breach is fatal and
// reported as a panic rather than an error value, keeping the hot-path
// calling code branch-minimal.
var ErrNotReady = errors.New("backlog: not ready")
