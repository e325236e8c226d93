// Package fixedmap implements a fixed-capacity, lock-free, single-writer /
// multi-reader associative container suitable for placement in shared
// memory between cooperating processes.
//
// Table[K, V] is built around three layers:
//
//   - a process-local bitmap allocator handing out stable slot indices
//     in [0, N) (allocator.go);
//   - a fixed array of N nodes, each carrying its own seqlock version so
//     a node's {key, value, next, owningBucket} can be snapshotted by a
//     reader without ever blocking the writer (node.go);
//   - a table of B = nextPrime(2N) bucket heads, each an atomic slot
//     index forming the root of a singly-linked chain of nodes
//     (table.go).
//
// Exactly one goroutine may call Store or Remove at a time; any number
// of goroutines may call Read, ReadWith, Visit, or Stats concurrently
// with that writer and with each other. No mutex is ever taken on the
// read path. Table never grows, shrinks, or reallocates after
// construction — its entire state (bucket heads, nodes, allocator
// bitmap) is the whole of its persisted form, which is what makes it
// safe to place in a shared-memory segment mapped by multiple
// processes, provided every process uses the identical hash seed (see
// WithSeed).
//
// Key and value types must be trivially copyable: no pointers into
// private heaps, nothing that owns an external resource. Table does
// not enforce this at compile time (Go generics have no such
// constraint), but violating it defeats the entire point of placing
// the structure in shared memory.
package fixedmap
