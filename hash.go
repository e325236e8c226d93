package fixedmap

import "hash/maphash"

// HashFunc hashes a key under the given seed. The default, returned
// by defaultHash, is hash/maphash's generic comparable hasher.
//
// Grounded on puzpuzpuz-xsync__map.go's `maphash.Comparable(table.seed,
// key)` and on the teacher's own keyHash customization point
// (NewMapOfWithHasher) — this module takes the stdlib maphash route
// instead of the teacher's unsafe-pointer-plus-reflection route
// (mapof.go's defaultHasherUsingBuiltIn, which reaches into the
// runtime's internal map-type representation) because maphash.Comparable
// became available in the same Go version this module targets and
// gives the identical guarantee — a deterministic, seed-keyed hash
// over any comparable type — without depending on internal runtime
// layout that the teacher's own doc comment admits "should be
// verified for compatibility with each Go version upgrade".
type HashFunc[K comparable] func(seed maphash.Seed, key K) uint64

func defaultHash[K comparable]() HashFunc[K] {
	return func(seed maphash.Seed, key K) uint64 {
		return maphash.Comparable(seed, key)
	}
}

// config collects the functional options a Table is constructed with.
// Grounded on mapof.go's MapConfig + WithPresize/WithShrinkEnabled
// pattern; kept generic over K (but not V) because the one
// type-dependent option, WithHash, needs to know K's type.
type config[K comparable] struct {
	hash          HashFunc[K]
	seed          maphash.Seed
	seedSet       bool
	zeroAsDeleted bool
}

// Option configures a Table at construction time.
type Option[K comparable] func(*config[K])

// WithHash overrides the default maphash.Comparable-based hasher.
func WithHash[K comparable](fn HashFunc[K]) Option[K] {
	return func(c *config[K]) { c.hash = fn }
}

// WithSeed pins the hash seed instead of letting New pick a random
// one. spec.md §6 requires every process mapping the same
// shared-memory segment to use an identical, deterministic hash —
// the first process to construct the table must pick a seed with
// WithSeed and communicate it (out of band) to every other process
// that will attach to the segment.
func WithSeed[K comparable](seed maphash.Seed) Option[K] {
	return func(c *config[K]) { c.seed = seed; c.seedSet = true }
}

// WithZeroAsDeleted configures Read/ReadWith/Visit to treat V's zero
// value as equivalent to "not present", letting callers skip an
// explicit occupancy bit in exchange for giving up the ability to
// store a genuine zero value. Store does not consult it: a key stored
// with the zero value still occupies a slot, counts in Stats, and is
// reported as found by Remove.
//
// Grounded on SeqFlatMapOf's zeroAsDeleted/valueIsValid option. Unlike
// the teacher, which requires V comparable to do the check with `!=`,
// this module uses reflect.DeepEqual so the option stays available to
// every Table regardless of V's comparability — a deliberate
// deviation recorded in DESIGN.md.
func WithZeroAsDeleted[K comparable]() Option[K] {
	return func(c *config[K]) { c.zeroAsDeleted = true }
}
