package fixedmap

import (
	"time"
	_ "unsafe" // for go:linkname
)

// delay implements the bounded exponential backoff spec.md §4.5 and §5
// require of readers: a short run of CPU-level spin (via the runtime's
// own PAUSE-instruction helper), each round twice as long as the one
// before, followed by an actual sleep once the
// runtime decides further spinning isn't worthwhile on this GOMAXPROCS.
// This caps CPU cost under a pathologically unlucky writer without
// ever blocking indefinitely.
//
// Grounded on llxisdsh/pb's mapof.go delay()/runtime_canSpin/
// runtime_doSpin and seq_flat_mapof.go's trySpin, including the
// go:linkname reach into the sync package's own spin primitives —
// the same ones sync.Mutex uses internally.
func delay(spins *int) {
	const yieldSleep = 500 * time.Microsecond
	if runtimeCanSpin(*spins) {
		for i := 0; i < 1<<*spins; i++ {
			runtimeDoSpin()
		}
		*spins++
		return
	}
	time.Sleep(yieldSleep)
	*spins = 0
}

//go:linkname runtimeCanSpin sync.runtime_canSpin
//go:nosplit
func runtimeCanSpin(i int) bool

//go:linkname runtimeDoSpin sync.runtime_doSpin
//go:nosplit
func runtimeDoSpin()
