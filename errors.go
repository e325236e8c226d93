package fixedmap

import "errors"

var (
	// ErrOverflow is returned by Store when the allocator has no free
	// slot left and the key being stored is not already present. The
	// table is left unchanged.
	ErrOverflow = errors.New("fixedmap: table is at capacity")
)
