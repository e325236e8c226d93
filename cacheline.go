package fixedmap

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is the cache line width of the build target, exported
// for callers that lay out a shared-memory segment themselves. Table
// does not use it: its bucket heads, nodes, and allocator bitmap are
// three separately allocated slices, and they are not aligned to or
// padded out to cache-line boundaries, so the allocator's write-hot
// bitmap may share a line with the read-hot bucket heads.
//
// Grounded on llxisdsh/pb's mapof_opt_cachelinesize.go, which derives
// the same constant from golang.org/x/sys/cpu rather than hardcoding
// 64: cache line width varies across architectures the stdlib itself
// cares about (e.g. 128 on some ARM64 parts), and cpu.CacheLinePad is
// sized correctly for the build target.
const CacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})

// noCopy embeds into a type to make `go vet`'s copylocks check flag
// accidental copies of Table after first use, the same trick the
// teacher uses on FlatMapOf and SeqFlatMapOf. Table holds no mutex,
// but copying it after construction would duplicate live atomic
// pointers and bitmap state, which is just as unsafe.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
