package fixedmap

import (
	"sync/atomic"
	"unsafe"
)

// seqValue holds a word-copyable payload T behind a seqlock whose
// sequence word lives outside of seqValue itself (the node's version
// counter). It provides the field-granularity-free half of spec.md
// §4.5's seqlock discipline: "read version; read data; reread version;
// retry unless both versions are equal and even" — the version
// book-keeping is the caller's (node.go's), this type is purely the
// torn-read-proof data copy.
//
// Grounded on llxisdsh/pb's atomicof.go (atomicOf[T].load/store/
// LoadWithSeq/StoreWithSeq), generalized from a uint32 sequence word
// to the node's uint64 version, and with busy-spin replaced by the
// bounded backoff in spin.go to honor spec.md §5's "exponential
// backoff caps CPU cost" requirement.
//
// T's size must be a multiple of 4 bytes; node.go's nodeData satisfies
// this through its uint64 fields.
type seqValue[T any] struct {
	buf T
}

//go:nosplit
func (s *seqValue[T]) wordLoad() (v T) {
	n := unsafe.Sizeof(s.buf) / 4
	base := unsafe.Pointer(&s.buf)
	out := unsafe.Pointer(&v)
	for i := uintptr(0); i < n; i++ {
		src := (*uint32)(unsafe.Add(base, i*4))
		dst := (*uint32)(unsafe.Add(out, i*4))
		*dst = atomic.LoadUint32(src)
	}
	return v
}

//go:nosplit
func (s *seqValue[T]) wordStore(v T) {
	n := unsafe.Sizeof(s.buf) / 4
	in := unsafe.Pointer(&v)
	base := unsafe.Pointer(&s.buf)
	for i := uintptr(0); i < n; i++ {
		src := (*uint32)(unsafe.Add(in, i*4))
		dst := (*uint32)(unsafe.Add(base, i*4))
		atomic.StoreUint32(dst, *src)
	}
}

// Load blocks (with backoff) until it can observe version even both
// before and after copying the payload, then returns that consistent
// copy. Safe to call from any number of readers concurrently with the
// single writer's Store.
func (s *seqValue[T]) Load(version *atomic.Uint64) T {
	spins := 0
	for {
		v1 := version.Load()
		if v1&1 != 0 {
			delay(&spins)
			continue
		}
		v := s.wordLoad()
		v2 := version.Load()
		if v1 == v2 {
			return v
		}
		delay(&spins)
	}
}

// Store performs the word copy only. The caller (the single writer)
// is responsible for bumping version to odd before calling Store and
// back to even after, per spec.md §4.3/§4.4.
func (s *seqValue[T]) Store(v T) {
	s.wordStore(v)
}
