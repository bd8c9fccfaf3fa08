package rbheap

import (
	"github.com/orizon-lang/rbheap/internal/block"
	"github.com/orizon-lang/rbheap/internal/tree"
)

// Stats is a small set of running counters over an Allocator's lifetime,
// in the spirit of the teacher's AllocatorStats/RegionMetrics but trimmed
// to what a single-threaded best-fit allocator can honestly report: there
// is no GC, no per-region history, and no fragmentation metric worth the
// name (SPEC_FULL.md §4.8).
type Stats struct {
	// AllocationCount is the number of successful Allocate/ZeroAllocate
	// calls (a Reallocate that grows counts as one more).
	AllocationCount uint64
	// FreeCount is the number of Free calls that actually transitioned a
	// block from Allocated to Free.
	FreeCount uint64
	// BytesLive is the aligned size, in bytes, of every block currently
	// Allocated.
	BytesLive uintptr
	// HeapGrowths is the number of times Allocate had to extend the heap
	// because no free block fit the request.
	HeapGrowths uint64
}

func (s *Stats) onAlloc(size uintptr, grewHeap bool) {
	s.AllocationCount++
	s.BytesLive += size

	if grewHeap {
		s.HeapGrowths++
	}
}

func (s *Stats) onFree(size uintptr) {
	s.FreeCount++
	s.BytesLive -= size
}

// Stats returns a snapshot of a's running counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// FreeIndexSize returns the number of blocks currently sitting in the
// free-region index, by walking it. This is O(n) in the number of free
// blocks; it exists for diagnostics and tests, not the hot path.
func (a *Allocator) FreeIndexSize() int {
	n := 0

	a.index.InOrder(func(_ *block.Header) {
		n++
	})

	return n
}

// ValidateIndex walks the free-region index and reports the first
// violation of the invariants in SPEC_FULL.md §3/§8, or nil if the index
// is healthy.
func (a *Allocator) ValidateIndex() error {
	return a.index.Validate()
}

// Index exposes the free-region index itself, for callers that want to
// walk or print it (rbdebug.PrintTree accepts anything with a Root method,
// which *tree.Tree already has). Not part of the allocation contract.
func (a *Allocator) Index() *tree.Tree {
	return &a.index
}
