package fixedmap

import (
	"hash/maphash"
	"reflect"
	"sync/atomic"
)

// Table is a fixed-capacity, lock-free, single-writer/multi-reader
// associative container suitable for placement in shared memory
// (spec.md §1-§3). All of its storage is three flat arrays sized at
// construction time — the bucket head array, the node array, and the
// allocator's bitmap — so a Table embedded in a mapped region never
// grows, never reallocates, and never moves.
//
// Exactly one goroutine (or, in the shared-memory deployment spec.md
// targets, one process) may call Store or Remove at a time; any
// number of goroutines may call Read, ReadWith, Visit, or Stats
// concurrently with that single writer and with each other. Table
// itself only guards against concurrent writers from within the same
// process (enterWrite/exitWrite below); it cannot detect a second
// writer process attached to the same shared-memory segment, exactly
// as spec.md §7 specifies.
//
// Grounded on llxisdsh/pb's SeqFlatMapOf (seq_flat_mapof.go) for the
// overall per-bucket-seqlock shape, generalized from its resizable
// CLHT-style bucket array to spec.md's fixed bucket count and explicit
// chained nodes.
type Table[K comparable, V any] struct {
	_ noCopy

	buckets []atomic.Uint64
	nodes   []node[K, V]
	alloc   *slotAllocator

	hash          HashFunc[K]
	seed          maphash.Seed
	zeroAsDeleted bool

	bucketCount int
	capacity    int

	writing atomic.Uint32
}

// New constructs a Table holding up to capacity (key, value) pairs.
// capacity must be at least 1. The bucket count is the next prime at
// or above 2*capacity, and never less than 5 (spec.md §4.2), chosen once at construction and
// fixed for the Table's lifetime.
func New[K comparable, V any](capacity int, opts ...Option[K]) *Table[K, V] {
	if capacity < 1 {
		panic("fixedmap: capacity must be at least 1")
	}
	cfg := config[K]{hash: defaultHash[K]()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.seedSet {
		cfg.seed = maphash.MakeSeed()
	}

	bucketCount := nextPrime(2 * capacity)
	t := &Table[K, V]{
		buckets:       make([]atomic.Uint64, bucketCount),
		nodes:         make([]node[K, V], capacity),
		alloc:         newSlotAllocator(capacity),
		hash:          cfg.hash,
		seed:          cfg.seed,
		zeroAsDeleted: cfg.zeroAsDeleted,
		bucketCount:   bucketCount,
		capacity:      capacity,
	}
	for i := range t.buckets {
		t.buckets[i].Store(emptyIndex)
	}
	return t
}

// Seed returns the hash seed this Table was constructed with. Every
// process attaching to the same shared-memory segment must compute
// hashes with this same seed (spec.md §6) — typically by passing it
// to WithSeed when constructing their own *Table header over the
// segment, or by using ReadWith with a hash computed from it directly.
func (t *Table[K, V]) Seed() maphash.Seed { return t.seed }

// Cap returns the fixed capacity the Table was constructed with.
func (t *Table[K, V]) Cap() int { return t.capacity }

func (t *Table[K, V]) bucketOf(key K) (bucketIdx uint64, hash uint64) {
	hash = t.hash(t.seed, key)
	return hash % uint64(t.bucketCount), hash
}

// enterWrite and exitWrite bracket every writer-side operation. They
// exist purely to turn a same-process single-writer contract
// violation into a panic instead of silent corruption; they do
// nothing to protect against a second writer process attached to the
// same shared-memory segment, which is outside Table's power to
// detect (spec.md §7).
func (t *Table[K, V]) enterWrite() {
	if !t.writing.CompareAndSwap(0, 1) {
		panic("fixedmap: concurrent Store/Remove from the same process")
	}
}

func (t *Table[K, V]) exitWrite() {
	t.writing.Store(0)
}

// Store inserts key with the given value, or overwrites the existing
// value if key is already present. It returns ErrOverflow, leaving
// the table unchanged, if key is new and the allocator has no free
// slot (spec.md §4.3's capacity edge case).
func (t *Table[K, V]) Store(key K, value V) error {
	t.enterWrite()
	defer t.exitWrite()

	bucketIdx, _ := t.bucketOf(key)

	for curIdx := t.buckets[bucketIdx].Load(); curIdx != emptyIndex; {
		n := &t.nodes[curIdx]
		snap := n.snapshot()
		if snap.key == key {
			snap.value = value
			n.publish(snap)
			return nil
		}
		curIdx = snap.next
	}

	slot, ok := t.alloc.alloc()
	if !ok {
		return ErrOverflow
	}

	n := &t.nodes[slot]
	n.publish(nodeData[K, V]{rawNodeData: rawNodeData[K, V]{
		key:          key,
		value:        value,
		next:         t.buckets[bucketIdx].Load(),
		owningBucket: bucketIdx,
	}})
	t.buckets[bucketIdx].Store(uint64(slot))
	return nil
}

// Remove deletes key if present and reports whether it was found.
//
// Unlinking the bucket head is special-cased relative to unlinking an
// interior node: the head case has to mutate the shared bucket-head
// word as well as the node being removed, and the node's own version
// is bumped to odd before that bucket-head write so a reader that is
// mid-dereference of the old head observes an in-progress mutation
// (and retries) rather than a silently stale pointer. Unlinking an
// interior node only ever touches its predecessor's next field, which
// is already bracketed by the predecessor's own publish.
//
// Grounded on original_source/LockFreeFixedSizeHashmap.cpp's
// remove<CompatibleK>, translating its root-bracket version bump into
// the equivalent node.beginMutate/endMutate pair around the bucket
// head store.
func (t *Table[K, V]) Remove(key K) bool {
	t.enterWrite()
	defer t.exitWrite()

	bucketIdx, _ := t.bucketOf(key)

	prevIdx := emptyIndex
	curIdx := t.buckets[bucketIdx].Load()
	for curIdx != emptyIndex {
		n := &t.nodes[curIdx]
		snap := n.snapshot()
		if snap.key != key {
			prevIdx = curIdx
			curIdx = snap.next
			continue
		}

		if prevIdx == emptyIndex {
			n.beginMutate()
			t.buckets[bucketIdx].Store(snap.next)
			n.data.Store(nodeData[K, V]{rawNodeData: rawNodeData[K, V]{
				next:         emptyIndex,
				owningBucket: emptyIndex,
			}})
			n.endMutate()
		} else {
			p := &t.nodes[prevIdx]
			pSnap := p.snapshot()
			pSnap.next = snap.next
			p.publish(pSnap)

			n.publish(nodeData[K, V]{rawNodeData: rawNodeData[K, V]{
				next:         emptyIndex,
				owningBucket: emptyIndex,
			}})
		}

		t.alloc.free(int(curIdx))
		return true
	}
	return false
}

// Read looks up key and returns its value and whether it was found.
func (t *Table[K, V]) Read(key K) (V, bool) {
	bucketIdx, _ := t.bucketOf(key)
	return t.readFrom(bucketIdx, func(d *nodeData[K, V]) bool { return d.key == key })
}

// ReadWith looks up a value by an already-computed hash and an
// arbitrary equality predicate over K, without requiring the caller
// to construct a K. This is this module's idiomatic-Go rendition of
// spec.md §4.2/§9's "compatible key" lookup: the C++ original
// accepts any type convertible-and-comparable to K via templates,
// which Go generics cannot express without unsafe type-punning. A
// caller with a compatible key type hashes it themselves — typically
// with maphash.Comparable(t.Seed(), compatibleKey), mirroring exactly
// how the Table hashes K internally — and passes both the hash and an
// equality closure here.
func (t *Table[K, V]) ReadWith(hash uint64, eq func(K) bool) (V, bool) {
	bucketIdx := hash % uint64(t.bucketCount)
	return t.readFrom(bucketIdx, func(d *nodeData[K, V]) bool { return eq(d.key) })
}

// readFrom walks the chain rooted at bucketIdx looking for a node
// matching the predicate. It validates the walk two ways, both
// grounded on original_source's read<CompatibleK>(): per-node, it
// rejects a node whose owningBucket no longer matches bucketIdx
// (the slot was freed and reused by a different bucket mid-walk);
// for the walk as a whole, it rechecks that the bucket's head node's
// version is unchanged from the value observed before the walk
// started. The latter is spec.md §9's "recheck head-node version"
// scheme rather than "recheck bucket head", because rereading only
// the head pointer misses the case where the head slot was removed
// and immediately reused for a different key within the same bucket.
func (t *Table[K, V]) readFrom(bucketIdx uint64, match func(*nodeData[K, V]) bool) (V, bool) {
	var zero V
	spins := 0
restart:
	headIdx := t.buckets[bucketIdx].Load()
	if headIdx == emptyIndex {
		return zero, false
	}
	headVersionBefore := t.nodes[headIdx].version.Load()
	if headVersionBefore&1 != 0 {
		delay(&spins)
		goto restart
	}

	found := false
	var value V
	for curIdx := headIdx; curIdx != emptyIndex; {
		n := &t.nodes[curIdx]
		snap := n.snapshot()
		if snap.owningBucket != bucketIdx {
			delay(&spins)
			goto restart
		}
		if match(&snap) {
			value = snap.value
			found = true
			break
		}
		curIdx = snap.next
	}

	headVersionAfter := t.nodes[headIdx].version.Load()
	if headVersionBefore != headVersionAfter {
		delay(&spins)
		goto restart
	}
	if !found {
		return zero, false
	}
	if t.zeroAsDeleted && isZero(value) {
		return zero, false
	}
	return value, true
}

// Visit calls fn for every (key, value) currently in the table, in
// unspecified order, stopping early if fn returns false. Like the
// original, this is best-effort under concurrent Store/Remove
// (spec.md §4.6/§9): it may or may not observe a concurrent
// insertion or deletion, but it will never observe a torn node.
func (t *Table[K, V]) Visit(fn func(K, V) bool) {
	for b := range t.buckets {
		for curIdx := t.buckets[b].Load(); curIdx != emptyIndex; {
			n := &t.nodes[curIdx]
			snap := n.snapshot()
			if snap.owningBucket != uint64(b) {
				break
			}
			if !(t.zeroAsDeleted && isZero(snap.value)) {
				if !fn(snap.key, snap.value) {
					return
				}
			}
			curIdx = snap.next
		}
	}
}

// Stats reports the number of occupied slots and the total capacity.
// Safe to call concurrently with the writer; the occupied count is a
// snapshot that may be stale by the time the caller observes it.
func (t *Table[K, V]) Stats() (live, capacity int) {
	return t.alloc.live(), t.capacity
}

func isZero[V any](v V) bool {
	return reflect.DeepEqual(v, *new(V))
}
