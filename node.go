package fixedmap

import "sync/atomic"

// emptyIndex is the sentinel used by bucket heads and node.next to mean
// "no slot" — spec.md's GLOSSARY "empty tag", the maximum representable
// index.
const emptyIndex = ^uint64(0)

// rawNodeData is the part of a node a writer publishes atomically: the
// key/value payload plus the two pieces of chain topology (next,
// owningBucket) that a reader needs alongside the payload to decide
// whether it derailed (spec.md §4.5's owning_bucket check) and where
// to walk next.
type rawNodeData[K, V any] struct {
	key          K
	value        V
	next         uint64
	owningBucket uint64
}

// nodeData is the payload seqValue's word-at-a-time atomic copy
// (seqvalue.go) walks. Its two uint64 fields give it an alignment of at
// least 4 bytes, and a struct's size is always a multiple of its
// alignment, so the copy never has a remainder and no padding field is
// needed for any (K, V) instantiation.
type nodeData[K, V any] struct {
	rawNodeData[K, V]
}

// node is one slot of the fixed N-element node array. version is the
// seqlock sequence described in spec.md §3/§4.7: even in Free and
// Live, odd in Publishing and Unpublishing, strictly increasing across
// the slot's entire lifetime including reuse.
type node[K, V any] struct {
	version atomic.Uint64
	data    seqValue[nodeData[K, V]]
}

// snapshot returns a torn-read-free copy of the node's current
// {key, value, next, owningBucket}, blocking with backoff until one
// is available. Safe for any number of concurrent callers, including
// the single writer reading its own prior writes during a chain walk.
func (n *node[K, V]) snapshot() nodeData[K, V] {
	return n.data.Load(&n.version)
}

// beginMutate and endMutate bracket a writer-only mutation of the
// node's data with the odd/even version transitions spec.md §4.3/§4.4
// require. They must only ever be called by the single writer.
func (n *node[K, V]) beginMutate() { n.version.Add(1) }
func (n *node[K, V]) endMutate()   { n.version.Add(1) }

// publish is the common case: bump to odd, overwrite the whole data
// word-copy, bump back to even. Used for in-place value updates, new
// node initialization, and node destruction — every spec.md §4.3/§4.4
// step that isn't the special-cased root-node bracketing remove()
// performs around the whole chain edit (see table.go's Remove).
func (n *node[K, V]) publish(d nodeData[K, V]) {
	n.beginMutate()
	n.data.Store(d)
	n.endMutate()
}
