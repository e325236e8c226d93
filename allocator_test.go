package fixedmap

import "testing"

// allocator bijection: for any N, allocating N times hands out every
// index in [0, N) exactly once, in some order, and the allocator then
// reports overflow.
func TestSlotAllocatorBijection(t *testing.T) {
	for _, n := range []int{3, 16, 30, 100, 256, 1111} {
		a := newSlotAllocator(n)

		var firstCycle []int
		for cycle := 0; cycle < 3; cycle++ {
			seen := make([]bool, n)
			allocated := make([]int, 0, n)
			for i := 0; i < n; i++ {
				idx, ok := a.alloc()
				if !ok {
					t.Fatalf("n=%d cycle=%d: unexpected overflow after %d allocations", n, cycle, i)
				}
				if idx < 0 || idx >= n {
					t.Fatalf("n=%d cycle=%d: alloc returned out-of-range index %d", n, cycle, idx)
				}
				if seen[idx] {
					t.Fatalf("n=%d cycle=%d: index %d allocated twice", n, cycle, idx)
				}
				seen[idx] = true
				allocated = append(allocated, idx)
			}
			if _, ok := a.alloc(); ok {
				t.Fatalf("n=%d cycle=%d: expected overflow once full", n, cycle)
			}
			if got := a.live(); got != n {
				t.Fatalf("n=%d cycle=%d: live() = %d, want %d", n, cycle, got, n)
			}

			// Repeated alloc-N/free-N cycles must return the bitmap to
			// its initial state: the same set of N indices comes back
			// out every time, and live() drops to 0 in between.
			if cycle == 0 {
				firstCycle = allocated
			} else if !sameSet(firstCycle, allocated) {
				t.Fatalf("n=%d cycle=%d: allocated set %v does not match first cycle's %v", n, cycle, allocated, firstCycle)
			}

			for _, idx := range allocated {
				a.free(idx)
			}
			if got := a.live(); got != 0 {
				t.Fatalf("n=%d cycle=%d: live() = %d after freeing everything, want 0", n, cycle, got)
			}
		}
	}
}

func sameSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}

func TestSlotAllocatorFreeAndReuse(t *testing.T) {
	a := newSlotAllocator(8)
	idxs := make([]int, 8)
	for i := range idxs {
		idx, ok := a.alloc()
		if !ok {
			t.Fatalf("unexpected overflow at %d", i)
		}
		idxs[i] = idx
	}
	a.free(idxs[3])
	a.free(idxs[5])
	if got := a.live(); got != 6 {
		t.Fatalf("live() = %d, want 6", got)
	}
	got1, ok := a.alloc()
	if !ok {
		t.Fatal("expected a free slot after freeing two")
	}
	got2, ok := a.alloc()
	if !ok {
		t.Fatal("expected a second free slot after freeing two")
	}
	if got1 == got2 {
		t.Fatalf("alloc returned the same index twice: %d", got1)
	}
	if _, ok := a.alloc(); ok {
		t.Fatal("expected overflow: both freed slots were reused")
	}
}

func TestSlotAllocatorDoubleFreePanics(t *testing.T) {
	a := newSlotAllocator(4)
	idx, _ := a.alloc()
	a.free(idx)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double free")
		}
	}()
	a.free(idx)
}

func TestSlotAllocatorOutOfRangeFreePanics(t *testing.T) {
	a := newSlotAllocator(4)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-range free")
		}
	}()
	a.free(99)
}
